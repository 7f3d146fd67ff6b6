package drive

import (
	"context"
	"strings"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// RegisterUsers adds or replaces directory entries. It is used to seed the
// directory at startup.
func (d *Drive) RegisterUsers(ctx context.Context, users ...*catalog.User) (err error) {
	defer d.observe("register_users", time.Now(), &err)

	for _, u := range users {
		if u == nil {
			return catalog.NewError(catalog.ErrValidation, "user is required")
		}
		if strings.TrimSpace(u.ID) == "" {
			return catalog.NewError(catalog.ErrValidation, "user id is required")
		}
	}

	return d.store.Update(ctx, func(tx catalog.Tx) error {
		for _, u := range users {
			if err := tx.PutUser(u); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetUser returns one directory entry.
func (d *Drive) GetUser(ctx context.Context, id string) (user *catalog.User, err error) {
	defer d.observe("get_user", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		user, err = tx.GetUser(id)
		return err
	})
	return user, err
}

// FindUserByEmail looks a user up by email, ignoring case.
func (d *Drive) FindUserByEmail(ctx context.Context, email string) (user *catalog.User, err error) {
	defer d.observe("find_user", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		user, err = findUserByEmail(tx, email)
		return err
	})
	return user, err
}

// ListUsers returns the user directory ordered by id.
func (d *Drive) ListUsers(ctx context.Context) (users []*catalog.User, err error) {
	defer d.observe("list_users", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		users, err = tx.ListUsers()
		return err
	})
	return users, err
}
