package drive

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// ResourceRef identifies an access-controlled resource.
type ResourceRef struct {
	ID   string               `json:"id"`
	Type catalog.ResourceType `json:"type"`
}

// FolderRef and DocumentRef build resource references.
func FolderRef(id string) ResourceRef   { return ResourceRef{ID: id, Type: catalog.ResourceFolder} }
func DocumentRef(id string) ResourceRef { return ResourceRef{ID: id, Type: catalog.ResourceDocument} }

// resource adapts folders and documents to a common ACL view.
type resource struct {
	access *[]catalog.AccessEntry
	save   func(now time.Time) error
}

func loadResource(tx catalog.Tx, ref ResourceRef) (*resource, error) {
	switch ref.Type {
	case catalog.ResourceFolder:
		f, err := tx.GetFolder(ref.ID)
		if err != nil {
			return nil, err
		}
		return &resource{access: &f.Access, save: func(now time.Time) error {
			f.UpdatedAt = now
			f.Version++
			return tx.PutFolder(f)
		}}, nil
	case catalog.ResourceDocument:
		dc, err := tx.GetDocument(ref.ID)
		if err != nil {
			return nil, err
		}
		return &resource{access: &dc.Access, save: func(now time.Time) error {
			touch(dc, now)
			return tx.PutDocument(dc)
		}}, nil
	default:
		return nil, catalog.NewError(catalog.ErrValidation, "unknown resource type %q", ref.Type)
	}
}

// SetPermission grants permission on ref to userID, replacing any existing
// entry for the user in place.
func (d *Drive) SetPermission(ctx context.Context, ref ResourceRef, userID string, permission catalog.Permission) (err error) {
	defer d.observe("set_permission", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return err
	}

	if !permission.Valid() {
		return catalog.NewError(catalog.ErrValidation, "unknown permission %q", permission)
	}
	if userID == "" {
		return catalog.NewError(catalog.ErrValidation, "user id is required")
	}

	return d.store.Update(ctx, func(tx catalog.Tx) error {
		return setPermission(tx, ref, userID, permission, d.now())
	})
}

func setPermission(tx catalog.Tx, ref ResourceRef, userID string, permission catalog.Permission, now time.Time) error {
	res, err := loadResource(tx, ref)
	if err != nil {
		return err
	}

	acl := *res.access
	if i := slices.IndexFunc(acl, func(e catalog.AccessEntry) bool { return e.UserID == userID }); i >= 0 {
		acl[i].Permission = permission
	} else {
		*res.access = append(acl, catalog.AccessEntry{UserID: userID, Permission: permission})
	}
	return res.save(now)
}

// RemovePermission removes every entry for userID. Removing an absent
// entry is not an error.
func (d *Drive) RemovePermission(ctx context.Context, ref ResourceRef, userID string) (err error) {
	defer d.observe("remove_permission", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return err
	}

	return d.store.Update(ctx, func(tx catalog.Tx) error {
		res, err := loadResource(tx, ref)
		if err != nil {
			return err
		}

		before := len(*res.access)
		*res.access = slices.DeleteFunc(*res.access, func(e catalog.AccessEntry) bool { return e.UserID == userID })
		if len(*res.access) == before {
			return nil
		}
		return res.save(d.now())
	})
}

// GetAccessControlList returns the ordered ACL of ref.
func (d *Drive) GetAccessControlList(ctx context.Context, ref ResourceRef) (acl []catalog.AccessEntry, err error) {
	defer d.observe("get_acl", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		res, err := loadResource(tx, ref)
		if err != nil {
			return err
		}
		acl = slices.Clone(*res.access)
		return nil
	})
	return acl, err
}

// HasPermission reports whether userID holds at least required on ref.
// A missing resource or entry yields false; the error is reserved for
// cancellation and storage failures.
func (d *Drive) HasPermission(ctx context.Context, ref ResourceRef, userID string, required catalog.Permission) (ok bool, err error) {
	defer d.observe("has_permission", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return false, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		ok, err = hasPermission(tx, ref, userID, required)
		return err
	})
	return ok, err
}

func hasPermission(tx catalog.Tx, ref ResourceRef, userID string, required catalog.Permission) (bool, error) {
	res, err := loadResource(tx, ref)
	if err != nil {
		if catalog.IsNotFound(err) || catalog.IsValidation(err) {
			return false, nil
		}
		return false, err
	}

	return catalog.Granted(*res.access, userID, required), nil
}

// ShareWithEmail grants permission to the user registered under email.
func (d *Drive) ShareWithEmail(ctx context.Context, ref ResourceRef, email string, permission catalog.Permission) (user *catalog.User, err error) {
	defer d.observe("share_with_email", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	if !permission.Valid() {
		return nil, catalog.NewError(catalog.ErrValidation, "unknown permission %q", permission)
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		if user, err = findUserByEmail(tx, email); err != nil {
			return err
		}
		return setPermission(tx, ref, user.ID, permission, d.now())
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func findUserByEmail(tx catalog.Tx, email string) (*catalog.User, error) {
	email = strings.TrimSpace(email)
	users, err := tx.ListUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, &catalog.StoreError{Code: catalog.ErrNotFound, Message: "user not found", ID: email}
}
