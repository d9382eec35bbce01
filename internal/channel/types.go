package channel

import "context"

// DirectSuffix marks a channel id as a direct-message addressable entity.
const DirectSuffix = "@c.us"

// AddStatus is the closed set of outcomes the add-participant capability
// can report. Boundary adapters map raw transport codes onto it so the
// orchestrator never inspects codes.
type AddStatus int

const (
	// AddOK: the participant was added.
	AddOK AddStatus = iota
	// AddConflict: the participant is already in the group. Treated as a
	// logical success by callers.
	AddConflict
	// AddOther: any other non-success code (privacy settings, bans, ...).
	AddOther
)

func (s AddStatus) String() string {
	switch s {
	case AddOK:
		return "ok"
	case AddConflict:
		return "conflict"
	default:
		return "other"
	}
}

// GroupHandle identifies a resolved group on the channel.
type GroupHandle struct {
	ID   string
	Name string
}

// Error wraps a transport-level failure for one channel call.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Adapter is the capability surface herald consumes from the transport
// layer. Implementations own sessions, authentication and the wire
// protocol; the engine only sees channel ids and text.
type Adapter interface {
	// SendText delivers a direct message to a channel id.
	SendText(ctx context.Context, channelID, text string) error

	// FindGroup searches existing groups by exact name, case-insensitively.
	FindGroup(ctx context.Context, name string) (GroupHandle, bool, error)

	// CreateGroup creates a group seeded with one initial participant and
	// returns its handle.
	CreateGroup(ctx context.Context, name, seedChannelID string) (GroupHandle, error)

	// AddParticipant attempts a direct group add. A non-nil error means the
	// call itself failed; otherwise the status reports the channel's verdict.
	AddParticipant(ctx context.Context, g GroupHandle, channelID string) (AddStatus, error)

	// InviteLink returns a join link for the group. Callers absorb failures.
	InviteLink(ctx context.Context, g GroupHandle) (string, error)
}
