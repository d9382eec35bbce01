package contact

// Origin tags where a collection came from.
type Origin string

const (
	OriginConfig   Origin = "config"
	OriginLive     Origin = "live-fetch"
	OriginImported Origin = "imported"
)

// Record is one addressable contact. Every record carries the same three
// fields regardless of origin, so downstream code never shape-checks.
// ChannelID is derived from Number at parse time and is the only field
// ever handed to the channel.
type Record struct {
	Name      string
	Number    string
	ChannelID string
}

// Collection is a named, ordered contact list. It is immutable after
// creation; re-imports replace the whole collection in the registry.
type Collection struct {
	Name    string
	Origin  Origin
	Records []Record
}

func (c Collection) Len() int { return len(c.Records) }

// Batch is an ephemeral window over a collection.
// Invariant: 0 <= Start <= End <= collection length; Items aliases the
// collection's backing array and must not be mutated.
type Batch struct {
	Start int
	End   int
	Items []Record
}

func (b Batch) Empty() bool { return len(b.Items) == 0 }
