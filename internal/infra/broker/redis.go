package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// Each queue is a sorted set of message ids scored by the unix-millisecond
// time they become visible, plus a hash of id -> envelope. Receiving a
// message pushes its score out by the visibility timeout; Ack removes it.
var receiveScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[3]))
local out = {}
for i, id in ipairs(ids) do
	redis.call('ZADD', KEYS[1], ARGV[2], id)
	out[i] = redis.call('HGET', KEYS[2], id)
end
return out
`)

type envelope struct {
	ID         string            `json:"id"`
	Body       []byte            `json:"body"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Redis is a delayed-delivery broker on go-redis. Unlike SQS it holds a
// message until NotBefore, however far away.
type Redis struct {
	rdb        redis.UniversalClient
	clock      timeutil.Clock
	prefix     string
	visibility time.Duration
}

func NewRedis(rdb redis.UniversalClient, clock timeutil.Clock) *Redis {
	return &Redis{
		rdb:        rdb,
		clock:      clock,
		prefix:     "clinic:queue:",
		visibility: DefaultVisibilityTimeout,
	}
}

func (r *Redis) keys(name string) (string, string) {
	return r.prefix + name + ":ready", r.prefix + name + ":payload"
}

func (r *Redis) Send(ctx context.Context, name string, msg queue.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	payload, err := json.Marshal(envelope{ID: msg.ID, Body: msg.Body, Attributes: msg.Attributes})
	if err != nil {
		return err
	}

	visibleAt := msg.NotBefore
	if visibleAt.IsZero() {
		visibleAt = r.clock.Now()
	}

	zkey, hkey := r.keys(name)
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, hkey, msg.ID, payload)
		p.ZAdd(ctx, zkey, &redis.Z{Score: float64(visibleAt.UnixMilli()), Member: msg.ID})
		return nil
	})
	if err != nil {
		return httperr.Unavailable(fmt.Errorf("redis send: %w", err))
	}
	return nil
}

func (r *Redis) Receive(ctx context.Context, name string, max int) ([]queue.Delivery, error) {
	if max <= 0 {
		max = sqsMaxBatch
	}
	now := r.clock.Now()
	zkey, hkey := r.keys(name)

	res, err := receiveScript.Run(ctx, r.rdb, []string{zkey, hkey},
		now.UnixMilli(),
		now.Add(r.visibility).UnixMilli(),
		max,
	).Slice()
	if err != nil && err != redis.Nil {
		return nil, httperr.Unavailable(fmt.Errorf("redis receive: %w", err))
	}

	out := make([]queue.Delivery, 0, len(res))
	for _, raw := range res {
		s, ok := raw.(string)
		if !ok {
			// payload hash entry vanished; the id is acked on the next pass
			continue
		}
		var env envelope
		if err := json.Unmarshal([]byte(s), &env); err != nil {
			return nil, fmt.Errorf("redis receive: decode envelope: %w", err)
		}
		out = append(out, queue.Delivery{
			ID:         env.ID,
			Body:       env.Body,
			Attributes: env.Attributes,
			Receipt:    env.ID,
		})
	}
	return out, nil
}

func (r *Redis) Ack(ctx context.Context, name string, deliveries []queue.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}
	ids := make([]interface{}, 0, len(deliveries))
	fields := make([]string, 0, len(deliveries))
	for _, d := range deliveries {
		ids = append(ids, d.Receipt)
		fields = append(fields, d.Receipt)
	}

	zkey, hkey := r.keys(name)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, zkey, ids...)
		p.HDel(ctx, hkey, fields...)
		return nil
	})
	if err != nil {
		return httperr.Unavailable(fmt.Errorf("redis ack: %w", err))
	}
	return nil
}

var _ queue.Broker = (*Redis)(nil)
