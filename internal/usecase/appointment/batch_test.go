package appointment

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
)

func TestRunBatch_PanicIsolatedToOneMessage(t *testing.T) {
	deliveries := []queue.Delivery{
		delivery("m1", "ok"),
		delivery("m2", "boom"),
		delivery("m3", "ok"),
		delivery("m4", "ok"),
	}

	var processed []string
	res := runBatch(context.Background(), zerolog.Nop(), "test message", deliveries,
		func(ctx context.Context, id string, body []byte) ItemResult {
			if string(body) == "boom" {
				panic("kaboom")
			}
			processed = append(processed, id)
			return succeeded("a-"+id, "OK")
		})

	if res.Successful != 3 || res.Failed != 1 {
		t.Fatalf("expected 3 successful and 1 failed, got %+v", res)
	}
	if len(processed) != 3 {
		t.Fatalf("expected 3 messages processed, got %v", processed)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Unexpected error processing test message m2: kaboom" {
		t.Errorf("unexpected errors %v", res.Errors)
	}
	if res.Items[1].MessageID != "m2" || res.Items[1].Status != StatusFailed {
		t.Errorf("unexpected item %+v", res.Items[1])
	}
}

func TestRunBatch_MissingMessageID(t *testing.T) {
	res := runBatch(context.Background(), zerolog.Nop(), "request", []queue.Delivery{{Body: []byte("x")}},
		func(ctx context.Context, id string, body []byte) ItemResult {
			panic("bad")
		})

	if !strings.Contains(res.Errors[0], "request unknown") {
		t.Errorf("expected unknown message id, got %q", res.Errors[0])
	}
}

func TestRunBatch_EmptyBatch(t *testing.T) {
	res := runBatch(context.Background(), zerolog.Nop(), "request", nil, nil)
	if res.Successful+res.Failed+res.Skipped != 0 || res.Errors == nil {
		t.Errorf("expected empty result with non-nil errors, got %+v", res)
	}
}

func TestResult_CountsSkips(t *testing.T) {
	var res Result
	res.add(succeeded("a", "OK"))
	res.add(skipped("b", StatusReminderSkipped, "not eligible"))
	res.add(failed("c", "bad", nil))

	if res.Successful != 1 || res.Skipped != 1 || res.Failed != 1 {
		t.Errorf("unexpected counts %+v", res)
	}
	if len(res.Errors) != 1 {
		t.Errorf("skips must not add errors, got %v", res.Errors)
	}
}
