package plan

import "testing"

func TestBuiltin(t *testing.T) {
	tiers := Builtin("price_dev_free")
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}

	free, ok := FindByPriceID(tiers, "price_dev_free")
	if !ok {
		t.Fatal("free tier missing")
	}
	if free.ID != "free" {
		t.Errorf("free tier ID = %q, want free", free.ID)
	}
	if !IsFree(free) {
		t.Error("free tier should be free")
	}
	if free.WordsPerMonth != 500 {
		t.Errorf("free words = %d, want 500", free.WordsPerMonth)
	}

	pro, ok := FindByPriceID(tiers, "price_pro")
	if !ok {
		t.Fatal("pro tier missing by price ID")
	}
	if pro.PriceMonthly != 2900 {
		t.Errorf("pro price = %d, want 2900", pro.PriceMonthly)
	}
	if IsFree(pro) {
		t.Error("pro tier should not be free")
	}
}

func TestFindMisses(t *testing.T) {
	tiers := Builtin("price_free")
	if _, ok := FindByPriceID(tiers, "price_unknown"); ok {
		t.Error("unexpected match for unknown price ID")
	}
}

func TestIsUnlimited(t *testing.T) {
	if IsUnlimited(Tier{WordsPerMonth: 500}) {
		t.Error("limited tier reported unlimited")
	}
	if !IsUnlimited(Tier{WordsPerMonth: 0}) {
		t.Error("zero-limit tier should be unlimited")
	}
}
