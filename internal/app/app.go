// Package app wires the engine together: config, logging, the channel
// adapter, the contact registry, dispatch and membership services, the
// optional run store, and the campaign scheduler.
package app

import (
	"context"
	"strings"
	"time"

	"herald/internal/channel"
	"herald/internal/channel/dryrun"
	"herald/internal/config"
	"herald/internal/contact"
	"herald/internal/dispatch"
	"herald/internal/group"
	"herald/internal/runtime/supervisor"
	"herald/internal/schedule"
	"herald/internal/storage"
	logx "herald/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	adapter  channel.Adapter
	registry *contact.Registry

	disp   *dispatch.Service
	groups *group.Orchestrator
	sched  *schedule.Service
}

// New loads the config at cfgPath and builds all services. A nil adapter
// selects the dry-run adapter, which performs no external calls.
func New(cfgPath string, adapter channel.Adapter) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	if adapter == nil {
		adapter = dryrun.New(logSvc.Logger())
	}

	// Storage (optional)
	var store storage.Store
	if sc, err := mapStorageConfig(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	} else if sc != nil {
		st, err := storage.Open(*sc, logSvc.Logger().With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		store = st
		if store != nil {
			log.Info("run store enabled", logx.String("driver", sc.Driver))
		}
	}

	registry := contact.NewRegistry()
	seedRegistry(registry, cfg)

	disp := dispatch.New(dispatch.Config{Pacing: mapPacing(cfg)},
		adapter, logSvc.Logger().With(logx.String("comp", "dispatch")))
	groups := group.New(group.Config{
		Pacing:         mapPacing(cfg),
		InviteTemplate: cfg.Messages.InviteFallback,
	}, adapter, logSvc.Logger().With(logx.String("comp", "group")))

	a := &App{
		cfgPath:  cfgPath,
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		store:    store,
		adapter:  adapter,
		registry: registry,
		disp:     disp,
		groups:   groups,
	}
	a.sched = schedule.New(schedule.Config{Campaigns: mapCampaigns(cfg)},
		a.runCampaign, logSvc.Logger().With(logx.String("comp", "schedule")))
	if err := a.sched.Validate(schedule.Config{Campaigns: mapCampaigns(cfg)}); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Config() *config.Config      { return a.cfgm.Get() }
func (a *App) Registry() *contact.Registry { return a.registry }
func (a *App) Adapter() channel.Adapter    { return a.adapter }
func (a *App) Store() storage.Store        { return a.store }
func (a *App) Logger() logx.Logger         { return a.log }

// Done is closed when the supervisor context is canceled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start brings up daemon-mode machinery: the config watcher, the reload
// fan-out, and the campaign scheduler. One-shot CLI commands never call
// Start; they use the services directly.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.logs.Logger().With(logx.String("comp", "config")))

	a.sup.GoRestart("config.watch", a.cfgm.Watch)

	updates := a.cfgm.Subscribe(1)
	a.sup.Go("config.apply", func(ctx context.Context) error {
		defer a.cfgm.Unsubscribe(updates)
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg, ok := <-updates:
				if !ok {
					return nil
				}
				a.apply(cfg)
			}
		}
	})

	a.sched.Start(a.sup.Context())
	a.log.Info("started", logx.String("config", a.cfgPath))
	return nil
}

// Stop shuts down daemon machinery and waits for in-flight work.
func (a *App) Stop(ctx context.Context) error {
	if a.sched != nil {
		a.sched.Stop(ctx)
	}
	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	a.Close()
	a.log.Info("stopped")
	return err
}

// Close releases passive resources. Safe after a failed New.
func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}

// apply pushes a validated config into every running service.
func (a *App) apply(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.disp.Apply(dispatch.Config{Pacing: mapPacing(cfg)})
	a.groups.Apply(group.Config{
		Pacing:         mapPacing(cfg),
		InviteTemplate: cfg.Messages.InviteFallback,
	})
	a.sched.Apply(schedule.Config{Campaigns: mapCampaigns(cfg)})
	seedRegistry(a.registry, cfg)
	a.log.Info("config applied")
}

// seedRegistry (re)builds the config-origin collection from the numbers
// listed in the config file.
func seedRegistry(r *contact.Registry, cfg *config.Config) {
	recs := make([]contact.Record, 0, len(cfg.Numbers))
	for _, raw := range cfg.Numbers {
		number := strings.TrimSpace(raw)
		if number == "" {
			continue
		}
		recs = append(recs, contact.Record{
			Name:      number,
			Number:    number,
			ChannelID: contact.Normalize(number, cfg.CountryCode),
		})
	}
	r.Set(contact.DefaultSource, contact.Collection{
		Origin:  contact.OriginConfig,
		Records: recs,
	})
}

func mapPacing(cfg *config.Config) dispatch.Pacing {
	return dispatch.Pacing{
		Min:        cfg.Pacing.MinDelayDuration(),
		Max:        cfg.Pacing.MaxDelayDuration(),
		RatePerSec: cfg.Pacing.RatePerSec,
	}
}

// mapStorageConfig returns nil when storage is disabled.
func mapStorageConfig(cfg *config.Config) (*storage.Config, error) {
	s := cfg.Storage
	if s == nil {
		return nil, nil
	}
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", s.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &storage.Config{
		Driver:      driver,
		Path:        s.Path,
		BusyTimeout: busy,
	}, nil
}

func mapCampaigns(cfg *config.Config) []schedule.Campaign {
	out := make([]schedule.Campaign, 0, len(cfg.Campaigns))
	for _, c := range cfg.Campaigns {
		out = append(out, schedule.Campaign{
			Name:       c.Name,
			Spec:       c.Spec,
			Message:    c.Message,
			BatchSize:  c.BatchSize,
			StartBatch: c.StartBatch,
		})
	}
	return out
}
