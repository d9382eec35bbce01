// Package dryrun provides a channel adapter that performs no external
// calls. It is the default adapter for the CLI so runs can be rehearsed
// without a connected transport; real transports implement channel.Adapter.
package dryrun

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"herald/internal/channel"
	logx "herald/pkg/logx"
)

type Adapter struct {
	log logx.Logger

	mu     sync.Mutex
	groups map[string]channel.GroupHandle // key: lowercased name
	sent   int
}

func New(log logx.Logger) *Adapter {
	return &Adapter{
		log:    log.With(logx.String("adapter", "dryrun")),
		groups: map[string]channel.GroupHandle{},
	}
}

// Sent reports how many direct messages this adapter has accepted.
func (a *Adapter) Sent() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sent
}

func (a *Adapter) SendText(ctx context.Context, channelID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	a.sent++
	a.mu.Unlock()
	a.log.Info("would send message", logx.String("to", channelID), logx.Int("len", len(text)))
	return nil
}

func (a *Adapter) FindGroup(ctx context.Context, name string) (channel.GroupHandle, bool, error) {
	if err := ctx.Err(); err != nil {
		return channel.GroupHandle{}, false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	g, ok := a.groups[strings.ToLower(name)]
	return g, ok, nil
}

func (a *Adapter) CreateGroup(ctx context.Context, name, seedChannelID string) (channel.GroupHandle, error) {
	if err := ctx.Err(); err != nil {
		return channel.GroupHandle{}, err
	}
	g := channel.GroupHandle{ID: uuid.NewString() + "@g.us", Name: name}
	a.mu.Lock()
	a.groups[strings.ToLower(name)] = g
	a.mu.Unlock()
	a.log.Info("would create group", logx.String("name", name), logx.String("seed", seedChannelID))
	return g, nil
}

func (a *Adapter) AddParticipant(ctx context.Context, g channel.GroupHandle, channelID string) (channel.AddStatus, error) {
	if err := ctx.Err(); err != nil {
		return channel.AddOther, err
	}
	a.log.Info("would add participant", logx.String("group", g.Name), logx.String("who", channelID))
	return channel.AddOK, nil
}

func (a *Adapter) InviteLink(ctx context.Context, g channel.GroupHandle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "https://chat.whatsapp.com/" + strings.TrimSuffix(g.ID, "@g.us"), nil
}
