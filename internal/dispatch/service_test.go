package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"herald/internal/channel"
	"herald/internal/contact"
	logx "herald/pkg/logx"
)

// fakeAdapter records sends and fails the channel ids listed in fail.
type fakeAdapter struct {
	sent   []string
	fail   map[string]error
	onSend func(n int) // called after each successful accept, 1-based
}

func (f *fakeAdapter) SendText(ctx context.Context, channelID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := f.fail[channelID]; ok {
		return err
	}
	f.sent = append(f.sent, channelID)
	if f.onSend != nil {
		f.onSend(len(f.sent))
	}
	return nil
}

func (f *fakeAdapter) FindGroup(ctx context.Context, name string) (channel.GroupHandle, bool, error) {
	return channel.GroupHandle{}, false, nil
}

func (f *fakeAdapter) CreateGroup(ctx context.Context, name, seed string) (channel.GroupHandle, error) {
	return channel.GroupHandle{ID: "g@g.us", Name: name}, nil
}

func (f *fakeAdapter) AddParticipant(ctx context.Context, g channel.GroupHandle, channelID string) (channel.AddStatus, error) {
	return channel.AddOK, nil
}

func (f *fakeAdapter) InviteLink(ctx context.Context, g channel.GroupHandle) (string, error) {
	return "https://example.invalid/" + g.ID, nil
}

func fastConfig() Config {
	return Config{Pacing: Pacing{Min: 0, Max: 0, RatePerSec: 1000}}
}

func recipients(n int) []contact.Record {
	out := make([]contact.Record, n)
	for i := range out {
		out[i] = contact.Record{
			Name:      fmt.Sprintf("Contact %d", i+1),
			Number:    fmt.Sprintf("55512345%02d", i),
			ChannelID: fmt.Sprintf("155512345%02d@c.us", i),
		}
	}
	return out
}

func TestDispatchAllSent(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	s := New(fastConfig(), ad, logx.Nop())

	recs := recipients(5)
	sum, err := s.Dispatch(context.Background(), recs, "hello")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sum.Total != 5 || sum.Sent != 5 || sum.Failed != 0 || sum.Skipped != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.RunID == "" {
		t.Fatal("missing run id")
	}
	// One outcome per recipient, input order preserved.
	if len(sum.Outcomes) != 5 {
		t.Fatalf("outcomes = %d", len(sum.Outcomes))
	}
	for i, o := range sum.Outcomes {
		if o.Contact != recs[i] || o.Status != StatusSent {
			t.Fatalf("outcome %d = %+v", i, o)
		}
	}
}

func TestDispatchFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	recs := recipients(4)
	ad := &fakeAdapter{fail: map[string]error{
		recs[1].ChannelID: errors.New("boom"),
	}}
	s := New(fastConfig(), ad, logx.Nop())

	sum, err := s.Dispatch(context.Background(), recs, "hello")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sum.Sent != 3 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Sent+sum.Failed+sum.Skipped != sum.Total {
		t.Fatalf("counts do not add up: %+v", sum)
	}
	if sum.Outcomes[1].Status != StatusFailed || sum.Outcomes[1].Error == "" {
		t.Fatalf("failed outcome = %+v", sum.Outcomes[1])
	}
	// Recipients after the failure were still attempted.
	if len(ad.sent) != 3 {
		t.Fatalf("sent = %v", ad.sent)
	}
}

func TestDispatchCancellationSkipsRemainder(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	ad := &fakeAdapter{}
	ad.onSend = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	s := New(fastConfig(), ad, logx.Nop())

	recs := recipients(6)
	sum, err := s.Dispatch(ctx, recs, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if sum.Sent != 2 {
		t.Fatalf("sent = %d, want 2", sum.Sent)
	}
	if sum.Skipped != 4 {
		t.Fatalf("skipped = %d, want 4", sum.Skipped)
	}
	if sum.Sent+sum.Failed+sum.Skipped != sum.Total {
		t.Fatalf("counts do not add up: %+v", sum)
	}
	for _, o := range sum.Outcomes[2:] {
		if o.Status != StatusSkipped {
			t.Fatalf("remainder outcome = %+v", o)
		}
	}
}

func TestDispatchEmptyRecipientList(t *testing.T) {
	t.Parallel()
	s := New(fastConfig(), &fakeAdapter{}, logx.Nop())
	sum, err := s.Dispatch(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sum.Total != 0 || len(sum.Outcomes) != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestApplySwapsPacing(t *testing.T) {
	t.Parallel()
	s := New(fastConfig(), &fakeAdapter{}, logx.Nop())
	s.Apply(Config{Pacing: Pacing{Min: 0, Max: 0, RatePerSec: 500}})

	s.mu.Lock()
	burst := s.limiter.Burst()
	s.mu.Unlock()
	if burst != 500 {
		t.Fatalf("limiter burst = %d, want 500", burst)
	}
}
