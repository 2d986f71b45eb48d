// internal/historian/historian.go pops room actions from a Redis queue and persists them in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// popTimeout bounds each BLPop so the loop notices cancellation and flush ticks.
const popTimeout = time.Second

// Popper is the slice of the Redis client the service reads from.
type Popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// SinkFunc persists one batch of actions.
type SinkFunc func(ctx context.Context, actions []models.RoomAction) error

// Options tune a Service.
type Options struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	Logger        logrus.FieldLogger
}

// Service drains the action queue into a sink.
type Service struct {
	queue      Popper
	sink       SinkFunc
	queueName  string
	batchSize  int
	flushDelay time.Duration
	log        logrus.FieldLogger

	batchMu sync.Mutex
	batch   []models.RoomAction
	flushed int
}

// New builds a Service. Zero options fall back to a batch of 20 flushed every 500ms.
func New(queue Popper, sink SinkFunc, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		queue:      queue,
		sink:       sink,
		queueName:  opts.Queue,
		batchSize:  opts.BatchSize,
		flushDelay: opts.FlushInterval,
		log:        opts.Logger.WithField("queue", opts.Queue),
		batch:      make([]models.RoomAction, 0, opts.BatchSize),
	}
}

// Run pops actions until ctx is cancelled, flushing on size and on every tick.
// Whatever is still batched is flushed before returning.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("historian started")
	defer s.log.Info("historian stopped")

	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush(context.Background())
			return
		case <-ticker.C:
			s.Flush(ctx)
		default:
		}

		res, err := s.queue.BLPop(ctx, popTimeout, s.queueName).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				s.log.WithError(err).Error("BLPop failed")
				time.Sleep(popTimeout)
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload
		if len(res) < 2 {
			continue
		}
		s.HandlePayload(ctx, []byte(res[1]))
	}
}

// HandlePayload decodes one queued action and adds it to the batch.
func (s *Service) HandlePayload(ctx context.Context, payload []byte) {
	var action models.RoomAction
	if err := json.Unmarshal(payload, &action); err != nil {
		s.log.WithError(err).Warn("invalid action record")
		return
	}
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, action)
	if len(s.batch) >= s.batchSize {
		s.flushLocked(ctx)
	}
}

// Flush writes the current batch to the sink in one call.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.flushLocked(ctx)
}

func (s *Service) flushLocked(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	batchCopy := make([]models.RoomAction, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]

	if err := s.sink(ctx, batchCopy); err != nil {
		s.log.WithError(err).Errorf("dropped %d actions", len(batchCopy))
		return
	}
	s.flushed += len(batchCopy)
	s.log.Debugf("flushed %d actions", len(batchCopy))
}

// Pending is the number of actions waiting for the next flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// Flushed is the number of actions the sink has accepted so far.
func (s *Service) Flushed() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.flushed
}
