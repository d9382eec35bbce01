package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"herald/internal/channel"
	"herald/internal/contact"
	logx "herald/pkg/logx"
)

// Service delivers one message to an ordered recipient list through the
// channel adapter, pacing every send and aggregating per-recipient
// outcomes. Recipients are processed strictly one at a time; see Pacing.
type Service struct {
	mu      sync.Mutex
	pacing  Pacing
	limiter *rate.Limiter

	adapter channel.Adapter
	log     logx.Logger
}

func New(cfg Config, adapter channel.Adapter, log logx.Logger) *Service {
	s := &Service{adapter: adapter, log: log}
	s.Apply(cfg)
	return s
}

// Apply swaps pacing settings at runtime. Safe to call concurrently;
// an in-flight run keeps the snapshot it started with.
func (s *Service) Apply(cfg Config) {
	rps := cfg.Pacing.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	s.mu.Lock()
	s.pacing = cfg.Pacing
	s.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	s.mu.Unlock()
}

// Dispatch sends message to every recipient in order. Each recipient
// resolves to exactly one outcome; a failed send never aborts the run.
// On cancellation the summary covers recipients processed so far and the
// remainder is tagged skipped; the context error is returned alongside.
func (s *Service) Dispatch(ctx context.Context, recipients []contact.Record, message string) (Summary, error) {
	// Snapshot mutable dependencies to avoid races with Apply().
	s.mu.Lock()
	pacing := s.pacing
	lim := s.limiter
	s.mu.Unlock()

	sum := Summary{
		RunID:     uuid.NewString(),
		Total:     len(recipients),
		Outcomes:  make([]Outcome, 0, len(recipients)),
		StartedAt: time.Now(),
	}
	log := s.log.With(logx.String("run", sum.RunID))
	log.Info("dispatch started", logx.Int("total", sum.Total))

	for i, rec := range recipients {
		if err := s.pace(ctx, pacing, lim); err != nil {
			s.skipFrom(&sum, recipients[i:])
			break
		}

		log.Debug("sending", logx.Int("n", i+1), logx.Int("total", sum.Total), logx.String("to", rec.Name))
		if err := s.adapter.SendText(ctx, rec.ChannelID, message); err != nil {
			if ctx.Err() != nil {
				s.skipFrom(&sum, recipients[i:])
				break
			}
			sum.Failed++
			sum.Outcomes = append(sum.Outcomes, Outcome{Contact: rec, Status: StatusFailed, Error: err.Error()})
			log.Warn("send failed", logx.String("to", rec.Name), logx.Err(err))
			continue
		}
		sum.Sent++
		sum.Outcomes = append(sum.Outcomes, Outcome{Contact: rec, Status: StatusSent})
	}

	sum.Took = time.Since(sum.StartedAt)
	fields := []logx.Field{
		logx.Int("total", sum.Total), logx.Int("sent", sum.Sent),
		logx.Int("failed", sum.Failed), logx.Int("skipped", sum.Skipped),
		logx.Duration("took", sum.Took),
	}
	if err := ctx.Err(); err != nil {
		log.Warn("dispatch cancelled", fields...)
		return sum, err
	}
	if sum.Failed > 0 {
		log.Warn("dispatch finished with failures", fields...)
	} else {
		log.Info("dispatch finished", fields...)
	}
	return sum, nil
}

// pace applies the randomized delay, then the hard rate ceiling.
// Cancellation is checked before the delay so an operator can abort a
// long run between recipients.
func (s *Service) pace(ctx context.Context, p Pacing, lim *rate.Limiter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Sleep(ctx, p.Delay()); err != nil {
		return err
	}
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) skipFrom(sum *Summary, rest []contact.Record) {
	for _, rec := range rest {
		sum.Skipped++
		sum.Outcomes = append(sum.Outcomes, Outcome{Contact: rec, Status: StatusSkipped})
	}
}
