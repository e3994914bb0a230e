package trade

import (
	"testing"

	"github.com/pookielabs/pookieverse/internal/world"
)

func TestCreateAndGet(t *testing.T) {
	l := NewLedger()
	o := l.Create("Momo", "Boo",
		[]world.ItemStack{{ItemID: "berries", Amount: 1}},
		[]world.ItemStack{{ItemID: "firewood", Amount: 2}},
		1000)

	if o.ID == "" {
		t.Fatalf("offer has empty id")
	}
	if got := l.Get(o.ID); got != o {
		t.Fatalf("Get(%q) did not return the created offer", o.ID)
	}
	if l.Get("no-such-offer") != nil {
		t.Fatalf("Get for unknown id should return nil")
	}

	o2 := l.Create("Momo", "Boo", nil, nil, 1000)
	if o2.ID == o.ID {
		t.Fatalf("two offers share an id")
	}
}

func TestPendingForFiltersAddresseeAndExpiry(t *testing.T) {
	l := NewLedger()
	createdAt := int64(10_000)
	forBoo := l.Create("Momo", "Boo", nil, nil, createdAt)
	l.Create("Momo", "Nibble", nil, nil, createdAt)

	pending := l.PendingFor("Boo", createdAt+1)
	if len(pending) != 1 || pending[0].ID != forBoo.ID {
		t.Fatalf("PendingFor(Boo) = %v, want just %q", pending, forBoo.ID)
	}

	// Exactly at the TTL boundary the offer is still pending.
	if got := l.PendingFor("Boo", createdAt+OfferTTLMillis); len(got) != 1 {
		t.Fatalf("offer should still be pending at the TTL boundary")
	}
	// One millisecond past it is not.
	if got := l.PendingFor("Boo", createdAt+OfferTTLMillis+1); len(got) != 0 {
		t.Fatalf("offer queried %dms after creation should be excluded, got %v", OfferTTLMillis+1, got)
	}
}

func TestRemove(t *testing.T) {
	l := NewLedger()
	o := l.Create("Momo", "Boo", nil, nil, 0)
	l.Remove(o.ID)
	if l.Get(o.ID) != nil {
		t.Fatalf("offer still present after Remove")
	}
	// Removing twice is harmless.
	l.Remove(o.ID)
}

func TestPruneExpired(t *testing.T) {
	l := NewLedger()
	l.Create("Momo", "Boo", nil, nil, 0)
	l.Create("Momo", "Boo", nil, nil, 50_000)
	fresh := l.Create("Momo", "Boo", nil, nil, 100_000)

	n := l.PruneExpired(120_000)
	if n != 2 {
		t.Fatalf("PruneExpired removed %d offers, want 2", n)
	}
	if l.Len() != 1 || l.Get(fresh.ID) == nil {
		t.Fatalf("fresh offer should survive pruning")
	}
}
