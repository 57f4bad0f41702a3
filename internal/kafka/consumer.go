package kafka

import (
	"context"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"hash/fnv"
	"sync"
	"time"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r          *kafka.Reader
	workers    int
	log        *zap.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, group string, topics []string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{r: r, workers: workers, log: log, backoff: 200 * time.Millisecond, maxBackoff: 5 * time.Second}
}

// Start reads until ctx is cancelled. Messages sharing a key always go to the
// same worker, so per-entity order is kept.
//
// A failing message is retried with backoff until it succeeds or ctx ends; it is
// never skipped. Offsets are committed per partition only up to the first message
// that is still being handled, so a restart resumes from the oldest unfinished one.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	offs := newOffsets(c.r)

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if !c.handle(ctx, id, h, m) {
					continue // shutting down, leave it uncommitted
				}
				if err := offs.ack(ctx, m); err != nil && ctx.Err() == nil {
					c.log.Warn("commit offset", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
				}
			}
		}(i, lanes[i])
	}
	stop := func() {
		for _, l := range lanes {
			close(l)
		}
		wg.Wait()
	}

	// dispatcher loop
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			// kecilkan noise saat shutdown
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		offs.track(m)
		select {
		case lanes[lane(m.Key, c.workers)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// handle runs h until it succeeds. It returns false only when ctx ends first.
func (c *Consumer) handle(ctx context.Context, worker int, h Handler, m kafka.Message) bool {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return true
		}
		c.log.Error("handle message",
			zap.Int("worker", worker),
			zap.String("topic", m.Topic),
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Error(err))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		if wait *= 2; wait > c.maxBackoff {
			wait = c.maxBackoff
		}
	}
}

type committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type partition struct {
	topic string
	id    int
}

// offsets tracks fetched messages per partition. Lanes finish out of order, so a
// commit only moves past a message once every earlier one in its partition is done.
type offsets struct {
	mu      sync.Mutex
	c       committer
	pending map[partition][]int64
	done    map[partition]map[int64]bool
}

func newOffsets(c committer) *offsets {
	return &offsets{
		c:       c,
		pending: make(map[partition][]int64),
		done:    make(map[partition]map[int64]bool),
	}
}

func (o *offsets) track(m kafka.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := partition{m.Topic, m.Partition}
	o.pending[k] = append(o.pending[k], m.Offset)
}

// ack marks m handled and commits the longest finished prefix of its partition.
// Commits happen under the lock so they never go backwards.
func (o *offsets) ack(ctx context.Context, m kafka.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := partition{m.Topic, m.Partition}
	if o.done[k] == nil {
		o.done[k] = make(map[int64]bool)
	}
	o.done[k][m.Offset] = true

	q := o.pending[k]
	n := 0
	for n < len(q) && o.done[k][q[n]] {
		delete(o.done[k], q[n])
		n++
	}
	if n == 0 {
		return nil
	}
	last := q[n-1]
	o.pending[k] = q[n:]
	return o.c.CommitMessages(ctx, kafka.Message{Topic: m.Topic, Partition: m.Partition, Offset: last})
}

func lane(key []byte, n int) int {
	if n <= 1 || len(key) == 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write(key)
	return int(h.Sum32() % uint32(n))
}
