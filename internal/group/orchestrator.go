// Package group drives the two-step group membership workflow: resolve or
// create the group once, then per recipient attempt a direct add and fall
// back to a direct invite message when the add is refused.
package group

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"herald/internal/channel"
	"herald/internal/contact"
	"herald/internal/dispatch"
	logx "herald/pkg/logx"
)

type Orchestrator struct {
	mu       sync.Mutex
	pacing   dispatch.Pacing
	template string
	limiter  *rate.Limiter

	adapter channel.Adapter
	log     logx.Logger
}

func New(cfg Config, adapter channel.Adapter, log logx.Logger) *Orchestrator {
	o := &Orchestrator{adapter: adapter, log: log}
	o.Apply(cfg)
	return o
}

// Apply swaps pacing and template settings at runtime.
func (o *Orchestrator) Apply(cfg Config) {
	rps := cfg.Pacing.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	o.mu.Lock()
	o.pacing = cfg.Pacing
	o.template = cfg.InviteTemplate
	o.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	o.mu.Unlock()
}

// Run resolves the group and processes every recipient to exactly one
// terminal state. Group resolution failures abort before any recipient is
// touched; everything after that is absorbed into the summary.
func (o *Orchestrator) Run(ctx context.Context, groupName string, recipients []contact.Record) (Summary, error) {
	o.mu.Lock()
	pacing := o.pacing
	template := o.template
	lim := o.limiter
	o.mu.Unlock()

	sum := Summary{
		RunID:     uuid.NewString(),
		Total:     len(recipients),
		Outcomes:  make([]Outcome, 0, len(recipients)),
		StartedAt: time.Now(),
	}
	if len(recipients) == 0 {
		return sum, nil
	}
	log := o.log.With(logx.String("run", sum.RunID), logx.String("group", groupName))

	g, err := o.resolveGroup(ctx, groupName, recipients[0], pacing)
	if err != nil {
		return sum, fmt.Errorf("resolve group %q: %w", groupName, err)
	}
	sum.Group = g

	// Invite-link failure is absorbed: membership continues with the
	// sentinel in the fallback message.
	link, err := o.adapter.InviteLink(ctx, g)
	if err != nil || strings.TrimSpace(link) == "" {
		if ctx.Err() != nil {
			o.skipFrom(&sum, recipients)
			return sum, ctx.Err()
		}
		log.Warn("invite link unavailable", logx.Err(err))
		link = InviteLinkUnavailable
	}
	sum.InviteLink = link
	fallback := renderInvite(template, groupName, link)

	log.Info("membership run started", logx.Int("total", sum.Total))
	for i, rec := range recipients {
		if err := o.pace(ctx, pacing, lim); err != nil {
			o.skipFrom(&sum, recipients[i:])
			break
		}
		out := o.processOne(ctx, g, rec, fallback, log)
		switch out.Status {
		case StatusAdded, StatusAlreadyMember:
			sum.Added++
		case StatusInviteSent:
			sum.Invited++
		case StatusFailed:
			sum.Failed++
		case StatusSkipped:
			sum.Skipped++
		}
		sum.Outcomes = append(sum.Outcomes, out)
		if out.Status == StatusSkipped {
			o.skipFrom(&sum, recipients[i+1:])
			break
		}
	}

	sum.Took = time.Since(sum.StartedAt)
	fields := []logx.Field{
		logx.Int("total", sum.Total), logx.Int("added", sum.Added),
		logx.Int("invited", sum.Invited), logx.Int("failed", sum.Failed),
		logx.Int("skipped", sum.Skipped), logx.Duration("took", sum.Took),
	}
	if err := ctx.Err(); err != nil {
		log.Warn("membership run cancelled", fields...)
		return sum, err
	}
	if sum.Failed > 0 {
		log.Warn("membership run finished with failures", fields...)
	} else {
		log.Info("membership run finished", fields...)
	}
	return sum, nil
}

// resolveGroup finds an existing group by exact case-insensitive name or
// creates a new one seeded with the first recipient. One-time step, not
// part of the per-recipient state machine.
func (o *Orchestrator) resolveGroup(ctx context.Context, name string, seed contact.Record, pacing dispatch.Pacing) (channel.GroupHandle, error) {
	g, found, err := o.adapter.FindGroup(ctx, name)
	if err != nil {
		return channel.GroupHandle{}, err
	}
	if found {
		o.log.Info("found existing group", logx.String("group", g.Name))
		return g, nil
	}

	if err := dispatch.Sleep(ctx, pacing.Delay()); err != nil {
		return channel.GroupHandle{}, err
	}
	g, err = o.adapter.CreateGroup(ctx, name, seed.ChannelID)
	if err != nil {
		return channel.GroupHandle{}, err
	}
	o.log.Info("created group", logx.String("group", name), logx.String("seed", seed.Name))
	return g, nil
}

// processOne runs the per-recipient state machine:
// AttemptAdd -> added | already-member | AttemptFallback -> invite-sent | failed.
func (o *Orchestrator) processOne(ctx context.Context, g channel.GroupHandle, rec contact.Record, fallback string, log logx.Logger) Outcome {
	st, err := o.adapter.AddParticipant(ctx, g, rec.ChannelID)
	if err == nil {
		switch st {
		case channel.AddOK:
			log.Debug("participant added", logx.String("who", rec.Name))
			return Outcome{Contact: rec, Status: StatusAdded}
		case channel.AddConflict:
			log.Debug("participant already in group", logx.String("who", rec.Name))
			return Outcome{Contact: rec, Status: StatusAlreadyMember}
		}
		err = fmt.Errorf("add refused: status %s", st)
	}
	if ctx.Err() != nil {
		return Outcome{Contact: rec, Status: StatusSkipped}
	}
	log.Warn("direct add failed; sending invite", logx.String("who", rec.Name), logx.Err(err))

	if err := dispatch.Sleep(ctx, fallbackPause); err != nil {
		return Outcome{Contact: rec, Status: StatusFailed, Error: err.Error()}
	}
	if err := o.adapter.SendText(ctx, rec.ChannelID, fallback); err != nil {
		log.Warn("fallback invite failed", logx.String("who", rec.Name), logx.Err(err))
		return Outcome{Contact: rec, Status: StatusFailed, Error: err.Error()}
	}
	return Outcome{Contact: rec, Status: StatusInviteSent}
}

func (o *Orchestrator) pace(ctx context.Context, p dispatch.Pacing, lim *rate.Limiter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := dispatch.Sleep(ctx, p.Delay()); err != nil {
		return err
	}
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) skipFrom(sum *Summary, rest []contact.Record) {
	for _, rec := range rest {
		sum.Skipped++
		sum.Outcomes = append(sum.Outcomes, Outcome{Contact: rec, Status: StatusSkipped})
	}
}

func renderInvite(template, groupName, link string) string {
	s := strings.ReplaceAll(template, "{groupName}", groupName)
	return strings.ReplaceAll(s, "{inviteLink}", link)
}
