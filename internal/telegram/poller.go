package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Handler interface {
	HandleUpdate(ctx context.Context, u Update)
}

type HandlerFunc func(ctx context.Context, u Update)

func (f HandlerFunc) HandleUpdate(ctx context.Context, u Update) { f(ctx, u) }

type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns Base * 2^(attempt-1), capped at Max.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

type updateSource interface {
	GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]Update, error)
}

type PollerConfig struct {
	Timeout time.Duration
	Workers int
	Backoff Backoff
}

// Poller long-polls for updates and hands them to a fixed worker pool.
// Updates of one chat always go to the same worker so they stay in order.
type Poller struct {
	source  updateSource
	handler Handler
	cfg     PollerConfig
	offset  int
	wait    func(ctx context.Context, d time.Duration) error
}

func NewPoller(source updateSource, handler Handler, cfg PollerConfig) *Poller {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	return &Poller{source: source, handler: handler, cfg: cfg, wait: sleepCtx}
}

// Run blocks until ctx is cancelled. Poll failures never end the loop; they
// are retried with exponential backoff that resets after a successful poll.
func (p *Poller) Run(ctx context.Context) error {
	// Queued updates are still handled after ctx is cancelled.
	handlerCtx := context.WithoutCancel(ctx)
	queues := make([]chan Update, p.cfg.Workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan Update, 16)
		wg.Add(1)
		go func(q <-chan Update) {
			defer wg.Done()
			for u := range q {
				p.handle(handlerCtx, u)
			}
		}(queues[i])
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := p.source.GetUpdates(ctx, p.offset, p.cfg.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			delay := p.cfg.Backoff.Delay(failures)
			if wait := RetryAfter(err); wait > delay {
				delay = wait
			}
			log.Warn().Err(err).Int("attempt", failures).Dur("retry_in", delay).Msg("telegram poll failed")
			if p.wait(ctx, delay) != nil {
				return nil
			}
			continue
		}
		if failures > 0 {
			log.Info().Int("attempts", failures).Msg("telegram poll recovered")
			failures = 0
		}
		for _, u := range updates {
			if u.ID >= p.offset {
				p.offset = u.ID + 1
			}
			q := queues[shard(ChatID(u), len(queues))]
			select {
			case q <- u:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (p *Poller) handle(ctx context.Context, u Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("update_id", u.ID).Msg("update handler panicked")
		}
	}()
	p.handler.HandleUpdate(ctx, u)
}

func shard(chatID int64, n int) int {
	if chatID < 0 {
		chatID = -chatID
	}
	return int(chatID % int64(n))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
