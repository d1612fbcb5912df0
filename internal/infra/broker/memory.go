package broker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

const DefaultVisibilityTimeout = 5 * time.Minute

type memItem struct {
	msg       queue.Message
	visibleAt time.Time
	receipt   string
}

// Memory is an in-process broker with delayed delivery and visibility
// timeouts, driven by a Clock so tests can move time.
type Memory struct {
	mu         sync.Mutex
	clock      timeutil.Clock
	visibility time.Duration
	queues     map[string][]*memItem
}

func NewMemory(clock timeutil.Clock) *Memory {
	return &Memory{
		clock:      clock,
		visibility: DefaultVisibilityTimeout,
		queues:     map[string][]*memItem{},
	}
}

func (m *Memory) Send(ctx context.Context, name string, msg queue.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.queues[name] = append(m.queues[name], &memItem{
		msg:       msg,
		visibleAt: msg.NotBefore,
	})
	return nil
}

func (m *Memory) Receive(ctx context.Context, name string, max int) ([]queue.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	items := m.queues[name]
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].visibleAt.Before(items[j].visibleAt)
	})

	var out []queue.Delivery
	for _, it := range items {
		if len(out) >= max {
			break
		}
		if it.visibleAt.After(now) {
			continue
		}
		it.receipt = uuid.NewString()
		it.visibleAt = now.Add(m.visibility)
		out = append(out, queue.Delivery{
			ID:         it.msg.ID,
			Body:       it.msg.Body,
			Attributes: it.msg.Attributes,
			Receipt:    it.receipt,
		})
	}
	return out, nil
}

func (m *Memory) Ack(ctx context.Context, name string, deliveries []queue.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	receipts := make(map[string]struct{}, len(deliveries))
	for _, d := range deliveries {
		receipts[d.Receipt] = struct{}{}
	}

	kept := m.queues[name][:0]
	for _, it := range m.queues[name] {
		if _, ok := receipts[it.receipt]; ok && it.receipt != "" {
			continue
		}
		kept = append(kept, it)
	}
	m.queues[name] = kept
	return nil
}

// Len reports how many messages, visible or not, remain on the queue.
func (m *Memory) Len(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[name])
}

// Pending returns copies of the messages still on the queue.
func (m *Memory) Pending(name string) []queue.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]queue.Message, 0, len(m.queues[name]))
	for _, it := range m.queues[name] {
		out = append(out, it.msg)
	}
	return out
}

var _ queue.Broker = (*Memory)(nil)
