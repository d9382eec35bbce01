package group

import (
	"time"

	"herald/internal/channel"
	"herald/internal/contact"
	"herald/internal/dispatch"
)

// Status is the terminal state of one recipient in a membership run.
type Status string

const (
	// StatusAdded: the direct group add succeeded.
	StatusAdded Status = "added"
	// StatusAlreadyMember: the channel reported a conflict; the recipient
	// was in the group already. A logical success, not a failure.
	StatusAlreadyMember Status = "already-member"
	// StatusInviteSent: the direct add failed and the fallback invite
	// message was delivered.
	StatusInviteSent Status = "invite-sent"
	// StatusFailed: both the direct add and the fallback invite failed.
	StatusFailed Status = "failed"
	// StatusSkipped: never attempted; the run was cancelled earlier.
	StatusSkipped Status = "skipped"
)

type Outcome struct {
	Contact contact.Record
	Status  Status
	Error   string
}

// Summary aggregates a membership run.
// Added counts both direct adds and already-member conflicts;
// Added + Invited + Failed + Skipped == Total.
type Summary struct {
	RunID      string
	Group      channel.GroupHandle
	InviteLink string
	Total      int
	Added      int
	Invited    int
	Failed     int
	Skipped    int
	Outcomes   []Outcome
	StartedAt  time.Time
	Took       time.Duration
}

// InviteLinkUnavailable substitutes for the invite link when the channel
// cannot produce one. Link failure never blocks membership processing.
const InviteLinkUnavailable = "[Invite link unavailable]"

// fallbackPause is the short fixed wait before a fallback invite send.
const fallbackPause = 2 * time.Second

type Config struct {
	Pacing dispatch.Pacing
	// InviteTemplate may contain {groupName} and {inviteLink}.
	InviteTemplate string
}
