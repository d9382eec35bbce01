// Package schedule triggers unattended campaign sends on cron specs.
//
// The service is trigger-only: the actual send runs through the Runner
// callback, which the daemon wires to the dispatch engine. Each campaign
// holds one in-flight run at a time; a tick that fires while the previous
// run is still going is skipped, not queued.
package schedule

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "herald/pkg/logx"
)

// Campaign is one recurring bulk send.
type Campaign struct {
	Name string
	Spec string // cron expression (5-field, optional seconds, or @every)

	Message    string
	BatchSize  int
	StartBatch int
}

type Config struct {
	Campaigns []Campaign
}

// Runner executes a single campaign run. It must honor ctx cancellation.
type Runner func(ctx context.Context, c Campaign) error

type entry struct {
	campaign Campaign
	entryID  cron.EntryID
	running  bool
}

type Service struct {
	mu sync.Mutex

	cfg    Config
	log    logx.Logger
	run    Runner
	parser cron.Parser

	c       *cron.Cron
	entries map[string]*entry

	// ctx set on Start; campaign runs inherit it so Stop cancels them.
	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

func New(cfg Config, run Runner, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg: cfg,
		log: log,
		run: run,
		// SecondOptional allows both 5-field and 6-field (with seconds) specs.
		parser:  cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		entries: map[string]*entry{},
	}
}

// Validate checks every campaign spec against the parser without starting
// anything. Used at config load so a bad spec fails fast.
func (s *Service) Validate(cfg Config) error {
	for _, c := range cfg.Campaigns {
		if _, err := s.parser.Parse(strings.TrimSpace(c.Spec)); err != nil {
			return &SpecError{Name: c.Name, Spec: c.Spec, Err: err}
		}
	}
	return nil
}

// Apply replaces the campaign set. If the service is running, the cron
// entries are rebuilt in place; in-flight runs are left to finish.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	if s.c == nil {
		return
	}
	s.rebuildLocked()
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}

	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.c = cron.New(cron.WithParser(s.parser))
	s.rebuildLocked()
	s.c.Start()

	s.log.Info("campaign scheduler started", logx.Int("campaigns", len(s.entries)))
}

// Stop stops triggering, cancels in-flight runs, and waits for them.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()

	s.mu.Lock()
	c := s.c
	cancel := s.runCancel
	s.c = nil
	s.runCancel = nil
	s.entries = map[string]*entry{}
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
	}

	s.log.Info("campaign scheduler stopped", logx.Duration("took", time.Since(start)))
}

// rebuildLocked drops all cron entries and re-registers the current set.
// Caller holds s.mu and s.c is non-nil.
func (s *Service) rebuildLocked() {
	for _, e := range s.entries {
		s.c.Remove(e.entryID)
	}
	s.entries = map[string]*entry{}

	for _, camp := range s.cfg.Campaigns {
		e := &entry{campaign: camp}
		id, err := s.c.AddFunc(camp.Spec, s.trigger(e))
		if err != nil {
			// Validate() at config load should have caught this.
			s.log.Error("campaign spec rejected", logx.String("campaign", camp.Name), logx.String("spec", camp.Spec), logx.Err(err))
			continue
		}
		e.entryID = id
		s.entries[camp.Name] = e
		s.log.Debug("campaign registered", logx.String("campaign", camp.Name), logx.String("spec", camp.Spec))
	}
}

func (s *Service) trigger(e *entry) func() {
	return func() {
		s.mu.Lock()
		if e.running || s.runCtx == nil {
			busy := e.running
			s.mu.Unlock()
			if busy {
				s.log.Warn("campaign tick skipped, previous run still going", logx.String("campaign", e.campaign.Name))
			}
			return
		}
		e.running = true
		ctx := s.runCtx
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				e.running = false
				s.mu.Unlock()
			}()

			start := time.Now()
			s.log.Info("campaign run starting", logx.String("campaign", e.campaign.Name))
			if err := s.run(ctx, e.campaign); err != nil {
				s.log.Error("campaign run failed", logx.String("campaign", e.campaign.Name), logx.Duration("took", time.Since(start)), logx.Err(err))
				return
			}
			s.log.Info("campaign run finished", logx.String("campaign", e.campaign.Name), logx.Duration("took", time.Since(start)))
		}()
	}
}

// SpecError reports an unparsable campaign cron spec.
type SpecError struct {
	Name string
	Spec string
	Err  error
}

func (e *SpecError) Error() string {
	return "campaign " + e.Name + ": bad spec " + e.Spec + ": " + e.Err.Error()
}

func (e *SpecError) Unwrap() error { return e.Err }
