package ledger

import (
	"context"

	"manicash/internal/core"
	"manicash/internal/storage"
)

// Categories returns the stored category set, or the built-ins when none
// has been saved yet.
func (e *Engine) Categories(ctx context.Context) (core.CategorySet, error) {
	var set core.CategorySet
	found, err := e.repo.Load(ctx, storage.KeyCategories, &set)
	if err != nil {
		return nil, err
	}
	if !found {
		return core.DefaultCategories(), nil
	}
	return set.Dedupe(), nil
}

// AddCategory inserts name unless a case-insensitive match already exists.
// Calling it twice with the same name is a no-op.
func (e *Engine) AddCategory(ctx context.Context, name string) (core.CategorySet, error) {
	var result core.CategorySet
	err := e.repo.Update(ctx, []string{storage.KeyCategories}, func(tx *storage.Tx) error {
		var set core.CategorySet
		found, err := tx.Get(storage.KeyCategories, &set)
		if err != nil {
			return err
		}
		if !found {
			set = core.DefaultCategories()
		}
		set = set.Dedupe()

		set, _, added, err := set.Add(name)
		if err != nil {
			return err
		}
		result = set
		if !added && found {
			return nil
		}
		return tx.Put(storage.KeyCategories, set)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
