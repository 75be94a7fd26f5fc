package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ChallengeArena/pkg/logger"
)

const (
	defaultPoll  = time.Second
	promoteEvery = 2 * time.Second
	deadCap      = 1000
)

var ErrNotRunning = errors.New("queue not running")

// promote moves due retries back onto the work list in one round trip.
// KEYS[1]=retry zset, KEYS[2]=work list, ARGV[1]=now (unix seconds).
var promote = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, m in ipairs(due) do
	redis.call('ZREM', KEYS[1], m)
	redis.call('LPUSH', KEYS[2], m)
end
return #due
`)

// RedisQueue is a list-backed job queue with delayed retries and a capped
// dead-letter list.
type RedisQueue struct {
	client *redis.Client
	lgr    *logger.Logger

	prefix     string
	workers    int
	retryLimit int
	retryDelay time.Duration
	poll       time.Duration

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*RedisQueue)

func WithKeyPrefix(prefix string) Option { return func(q *RedisQueue) { q.prefix = prefix } }

func WithWorkers(n int) Option {
	return func(q *RedisQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithRetry sets how often and how long apart failed jobs are retried.
func WithRetry(limit int, delay time.Duration) Option {
	return func(q *RedisQueue) {
		q.retryLimit = limit
		if delay > 0 {
			q.retryDelay = delay
		}
	}
}

func WithPollTimeout(d time.Duration) Option {
	return func(q *RedisQueue) {
		if d > 0 {
			q.poll = d
		}
	}
}

func NewRedisQueue(client *redis.Client, lgr *logger.Logger, opts ...Option) *RedisQueue {
	q := &RedisQueue{
		client:     client,
		lgr:        lgr,
		prefix:     "arena:queue",
		workers:    1,
		retryLimit: 3,
		retryDelay: 5 * time.Second,
		poll:       defaultPoll,
		jobs:       make(map[string]Job),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

func (q *RedisQueue) workKey() string  { return q.prefix + ":work" }
func (q *RedisQueue) retryKey() string { return q.prefix + ":retry" }
func (q *RedisQueue) deadKey() string  { return q.prefix + ":dead" }

// Register binds jobs by type; a duplicate type keeps the first job.
func (q *RedisQueue) Register(jobs ...Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range jobs {
		if _, dup := q.jobs[j.Type()]; dup {
			q.lgr.Warn("job type already registered", logger.String("type", j.Type()))
			continue
		}
		q.jobs[j.Type()] = j
	}
}

func (q *RedisQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return fmt.Errorf("queue already running")
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := q.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.running = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
	q.wg.Add(1)
	go q.promoteLoop(ctx)

	q.lgr.Info("job queue started",
		logger.String("prefix", q.prefix),
		logger.Int("workers", q.workers),
		logger.Int("jobs", len(q.jobs)))
	return nil
}

// Stop cancels workers and waits for in-flight jobs up to ctx.
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.lgr.Info("job queue stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue stop: %w", ctx.Err())
	}
}

// Publish enqueues a job for a registered type.
func (q *RedisQueue) Publish(ctx context.Context, jobType string, payload any) error {
	q.mu.RLock()
	running := q.running
	_, known := q.jobs[jobType]
	q.mu.RUnlock()
	if !running {
		return ErrNotRunning
	}
	if !known {
		return fmt.Errorf("no job registered for type %q", jobType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg, err := json.Marshal(Message{ID: uuid.NewString(), Type: jobType, Payload: raw, Enqueued: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := q.client.LPush(ctx, q.workKey(), msg).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

func (q *RedisQueue) work(ctx context.Context, id int) {
	defer q.wg.Done()
	for ctx.Err() == nil {
		res, err := q.client.BRPop(ctx, q.poll, q.workKey()).Result()
		switch {
		case err == nil:
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
			continue
		default:
			q.lgr.Error("queue pop failed", logger.Int("worker", id), logger.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if len(res) == 2 {
			q.handle(ctx, res[1])
		}
	}
}

func (q *RedisQueue) handle(ctx context.Context, raw string) {
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		q.lgr.Error("queue message undecodable", logger.Error(err))
		q.bury(raw)
		return
	}
	q.mu.RLock()
	job, ok := q.jobs[msg.Type]
	q.mu.RUnlock()
	if !ok {
		q.lgr.Warn("no job for message", logger.String("type", msg.Type), logger.String("id", msg.ID))
		q.bury(raw)
		return
	}

	start := time.Now()
	err := job.Handle(ctx, msg.Payload)
	if err == nil {
		q.lgr.Debug("job done",
			logger.String("job", job.Name()),
			logger.String("id", msg.ID),
			logger.Duration("elapsed", time.Since(start)))
		return
	}
	if ctx.Err() != nil {
		// shutting down; put it back for the next process
		q.requeue(msg, time.Now())
		return
	}

	msg.Attempts++
	if msg.Attempts > q.retryLimit {
		q.lgr.Error("job failed permanently",
			logger.String("job", job.Name()),
			logger.String("id", msg.ID),
			logger.Int("attempts", msg.Attempts),
			logger.Error(err))
		if b, merr := json.Marshal(msg); merr == nil {
			q.bury(string(b))
		}
		return
	}
	q.lgr.Warn("job failed, retrying",
		logger.String("job", job.Name()),
		logger.String("id", msg.ID),
		logger.Int("attempt", msg.Attempts),
		logger.Error(err))
	q.requeue(msg, time.Now().Add(q.retryDelay*time.Duration(msg.Attempts)))
}

// requeue and bury use a fresh context so they still land during shutdown.
func (q *RedisQueue) requeue(msg Message, at time.Time) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.client.ZAdd(ctx, q.retryKey(), redis.Z{Score: float64(at.Unix()), Member: b}).Err(); err != nil {
		q.lgr.Error("queue retry schedule failed", logger.String("id", msg.ID), logger.Error(err))
	}
}

func (q *RedisQueue) bury(raw string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, q.deadKey(), raw)
	pipe.LTrim(ctx, q.deadKey(), 0, deadCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		q.lgr.Error("queue dead-letter failed", logger.Error(err))
	}
}

func (q *RedisQueue) promoteLoop(ctx context.Context) {
	defer q.wg.Done()
	t := time.NewTicker(promoteEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := promote.Run(ctx, q.client,
				[]string{q.retryKey(), q.workKey()},
				strconv.FormatInt(now.Unix(), 10)).Int()
			if err != nil && ctx.Err() == nil {
				q.lgr.Error("queue retry promotion failed", logger.Error(err))
				continue
			}
			if n > 0 {
				q.lgr.Debug("retries promoted", logger.Int("count", n))
			}
		}
	}
}

var _ Publisher = (*RedisQueue)(nil)
