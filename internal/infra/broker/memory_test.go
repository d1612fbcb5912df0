package broker

import (
	"context"
	"testing"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

func TestMemory_DelayedDelivery(t *testing.T) {
	ctx := context.Background()
	clock := timeutil.NewManaged(time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC))
	m := NewMemory(clock)

	if err := m.Send(ctx, "q", queue.Message{Body: []byte("now")}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := m.Send(ctx, "q", queue.Message{Body: []byte("later"), NotBefore: clock.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := m.Receive(ctx, "q", 10)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(got) != 1 || string(got[0].Body) != "now" {
		t.Fatalf("expected only the immediate message, got %+v", got)
	}
	if err := m.Ack(ctx, "q", got); err != nil {
		t.Fatalf("Ack: %v", err)
	}

	clock.WarpForward(time.Hour)
	got, _ = m.Receive(ctx, "q", 10)
	if len(got) != 1 || string(got[0].Body) != "later" {
		t.Fatalf("expected the delayed message, got %+v", got)
	}
}

func TestMemory_RedeliversUnacked(t *testing.T) {
	ctx := context.Background()
	clock := timeutil.NewManaged(time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC))
	m := NewMemory(clock)

	_ = m.Send(ctx, "q", queue.Message{ID: "m1", Body: []byte("x")})

	first, _ := m.Receive(ctx, "q", 1)
	if len(first) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(first))
	}
	if again, _ := m.Receive(ctx, "q", 1); len(again) != 0 {
		t.Fatal("in-flight message must stay hidden")
	}

	clock.WarpForward(DefaultVisibilityTimeout)
	second, _ := m.Receive(ctx, "q", 1)
	if len(second) != 1 || second[0].ID != "m1" {
		t.Fatalf("expected redelivery of m1, got %+v", second)
	}

	// a stale receipt no longer acks anything
	_ = m.Ack(ctx, "q", first)
	if m.Len("q") != 1 {
		t.Fatal("stale receipt must not remove the message")
	}
	_ = m.Ack(ctx, "q", second)
	if m.Len("q") != 0 {
		t.Fatal("expected empty queue after ack")
	}
}

func TestMemoryClaimer(t *testing.T) {
	ctx := context.Background()
	clock := timeutil.NewManaged(time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC))
	c := NewMemoryClaimer(clock)

	if ok, _ := c.Claim(ctx, "a1", time.Minute); !ok {
		t.Fatal("first claim must succeed")
	}
	if ok, _ := c.Claim(ctx, "a1", time.Minute); ok {
		t.Fatal("second claim must lose")
	}
	clock.WarpForward(time.Minute)
	if ok, _ := c.Claim(ctx, "a1", time.Minute); !ok {
		t.Fatal("claim must be available after ttl")
	}
	_ = c.Release(ctx, "a1")
	if ok, _ := c.Claim(ctx, "a1", time.Minute); !ok {
		t.Fatal("claim must be available after release")
	}
}
