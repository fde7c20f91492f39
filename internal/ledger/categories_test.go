package ledger

import (
	"context"
	"testing"

	"manicash/internal/core"
	"manicash/internal/storage/memory"
)

func TestAddCategoryIsCaseInsensitiveAndIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, memory.New())

	initial, err := e.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(initial) != len(core.BuiltinCategories) {
		t.Fatalf("expected built-ins, got %v", initial)
	}

	for _, name := range []string{"Food", "food", "  FOOD "} {
		set, err := e.AddCategory(ctx, name)
		if err != nil {
			t.Fatalf("AddCategory(%q): %v", name, err)
		}
		if len(set) != len(initial) {
			t.Fatalf("AddCategory(%q) grew the set to %d", name, len(set))
		}
	}

	set, err := e.AddCategory(ctx, "  Pet   Care ")
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != len(initial)+1 || set[len(set)-1] != "Pet Care" {
		t.Fatalf("unexpected set %v", set)
	}
	again, err := e.AddCategory(ctx, "pet care")
	if err != nil || len(again) != len(set) {
		t.Fatalf("second add not idempotent: %v %v", again, err)
	}

	stored, err := e.Categories(ctx)
	if err != nil || len(stored) != len(set) {
		t.Fatalf("stored set = %v %v", stored, err)
	}
	if _, err := e.AddCategory(ctx, "   "); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
