package contact

import (
	"errors"
	"testing"
)

func col(n int) Collection {
	recs := make([]Record, n)
	for i := range recs {
		recs[i] = Record{Name: "Contact", Number: "5551234567", ChannelID: "15551234567@c.us"}
	}
	return Collection{Origin: OriginImported, Records: recs}
}

func TestRegistrySetActive(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Set("friends", col(3))

	if err := r.SetActive("friends"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if r.ActiveName() != "friends" {
		t.Fatalf("ActiveName = %q", r.ActiveName())
	}
	if r.Active().Len() != 3 {
		t.Fatalf("Active().Len() = %d", r.Active().Len())
	}
}

func TestRegistryRejectsMissingAndEmpty(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Set("friends", col(2))
	if err := r.SetActive("friends"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	if err := r.SetActive("nope"); !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("missing source error = %v", err)
	}
	r.Set("empty", col(0))
	if err := r.SetActive("empty"); !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("empty source error = %v", err)
	}
	// A failed switch leaves the pointer unchanged.
	if r.ActiveName() != "friends" {
		t.Fatalf("ActiveName = %q after failed switches", r.ActiveName())
	}
}

func TestRegistryClearFallsBack(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Set(DefaultSource, col(1))
	r.Set("friends", col(2))
	if err := r.SetActive("friends"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	r.Clear("friends")
	if r.ActiveName() != DefaultSource {
		t.Fatalf("ActiveName = %q, want %q", r.ActiveName(), DefaultSource)
	}
	if r.Active().Len() != 1 {
		t.Fatalf("Active().Len() = %d", r.Active().Len())
	}
}

func TestRegistryActiveNeverNilShaped(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	c := r.Active()
	if c.Name != DefaultSource || c.Len() != 0 {
		t.Fatalf("Active on empty registry = %+v", c)
	}
}

func TestRegistryReplaceKeepsActive(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Set("friends", col(2))
	if err := r.SetActive("friends"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	r.Set("friends", col(5))
	if r.ActiveName() != "friends" || r.Active().Len() != 5 {
		t.Fatalf("after replace: %q len %d", r.ActiveName(), r.Active().Len())
	}
}

func TestRegistryNames(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Set("zebra", col(1))
	r.Set("alpha", col(1))
	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zebra" {
		t.Fatalf("Names = %v", names)
	}
}
