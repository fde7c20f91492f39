package household

import (
	"context"
	"fmt"

	"manicash/internal/core"
	"manicash/internal/storage"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Directory keeps the display users of the household and the theme
// preference.
type Directory struct {
	repo *storage.Repo
}

func NewDirectory(repo *storage.Repo) *Directory {
	return &Directory{repo: repo}
}

// Users returns the stored users, or the default pair when none are stored.
func (d *Directory) Users(ctx context.Context) ([]core.User, error) {
	var users []core.User
	found, err := d.repo.Load(ctx, storage.KeyUsers, &users)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultUsers(), nil
	}
	return users, nil
}

// User returns the user with the given id.
func (d *Directory) User(ctx context.Context, id string) (core.User, error) {
	users, err := d.Users(ctx)
	if err != nil {
		return core.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("%w: %s", core.ErrUnknownUser, id)
}

// RenameUser sets a user's display name and, when avatar is not empty, the
// avatar.
func (d *Directory) RenameUser(ctx context.Context, id, name, avatar string) (core.User, error) {
	name = core.NormalizeName(name)
	if name == "" {
		return core.User{}, core.Invalid("name", core.ErrEmptyName)
	}

	var updated core.User
	err := d.repo.Update(ctx, []string{storage.KeyUsers}, func(tx *storage.Tx) error {
		var users []core.User
		found, err := tx.Get(storage.KeyUsers, &users)
		if err != nil {
			return err
		}
		if !found {
			users = DefaultUsers()
		}
		for i := range users {
			if users[i].ID != id {
				continue
			}
			users[i].Name = name
			if avatar != "" {
				users[i].Avatar = avatar
			}
			updated = users[i]
			return tx.Put(storage.KeyUsers, users)
		}
		return core.Invalid("userId", fmt.Errorf("%w: %s", core.ErrUnknownUser, id))
	})
	return updated, err
}

// Reset removes the users and the wallets of the household in one commit.
// It is the administrative reset; transactions, goals and budgets stay.
func (d *Directory) Reset(ctx context.Context) error {
	return d.repo.Update(ctx, []string{storage.KeyUsers, storage.KeyWallets}, func(tx *storage.Tx) error {
		if err := tx.Delete(storage.KeyUsers); err != nil {
			return err
		}
		return tx.Delete(storage.KeyWallets)
	})
}

// Theme returns the stored theme, light by default.
func (d *Directory) Theme(ctx context.Context) (Theme, error) {
	var t Theme
	found, err := d.repo.Load(ctx, storage.KeyTheme, &t)
	if err != nil {
		return "", err
	}
	if !found || !t.valid() {
		return ThemeLight, nil
	}
	return t, nil
}

func (d *Directory) SetTheme(ctx context.Context, t Theme) error {
	if !t.valid() {
		return core.Invalid("theme", fmt.Errorf("unknown theme %q", t))
	}
	return d.repo.Update(ctx, []string{storage.KeyTheme}, func(tx *storage.Tx) error {
		return tx.Put(storage.KeyTheme, t)
	})
}

func (t Theme) valid() bool {
	return t == ThemeLight || t == ThemeDark
}
