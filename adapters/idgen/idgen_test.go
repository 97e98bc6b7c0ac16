package idgen_test

import (
	"testing"

	"github.com/wordcoach/wordcoach/adapters/idgen"
)

func TestUUID_New(t *testing.T) {
	g := idgen.UUID{}

	a := g.New()
	b := g.New()

	if a == b {
		t.Error("consecutive UUIDs must differ")
	}
	if len(a) != 36 {
		t.Errorf("len(id) = %d, want 36", len(a))
	}
}

func TestSequential(t *testing.T) {
	g := idgen.NewSequential("evt_")

	if got := g.New(); got != "evt_1" {
		t.Errorf("first id = %s, want evt_1", got)
	}
	if got := g.New(); got != "evt_2" {
		t.Errorf("second id = %s, want evt_2", got)
	}

	g.Reset()
	if got := g.New(); got != "evt_1" {
		t.Errorf("id after Reset = %s, want evt_1", got)
	}
}
