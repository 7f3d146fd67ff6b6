package drive

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// TagSpec describes a new tag.
type TagSpec struct {
	Name  string `json:"name" validate:"required,max=64"`
	Color string `json:"color" validate:"omitempty,iscolor"`
}

// TagPatch lists the tag fields to change.
type TagPatch struct {
	Name  Optional[string] `json:"name"`
	Color Optional[string] `json:"color"`
}

var tagValidator = validator.New()

func validateTag(spec TagSpec) error {
	if err := tagValidator.Struct(spec); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return catalog.NewError(catalog.ErrValidation, "invalid tag %s: failed %q check", strings.ToLower(fe.Field()), fe.Tag())
		}
		return catalog.NewError(catalog.ErrValidation, "invalid tag: %v", err)
	}
	return nil
}

// CreateTag creates a tag.
func (d *Drive) CreateTag(ctx context.Context, spec TagSpec) (tag *catalog.Tag, err error) {
	defer d.observe("create_tag", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	spec.Name = strings.TrimSpace(spec.Name)
	spec.Color = strings.TrimSpace(spec.Color)
	if err := validateTag(spec); err != nil {
		return nil, err
	}

	tag = &catalog.Tag{ID: d.newID(), Name: spec.Name, Color: spec.Color}
	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		return tx.PutTag(tag)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Created tag %q (%s)", tag.Name, tag.ID)
	return tag, nil
}

// UpdateTag applies patch to a tag.
func (d *Drive) UpdateTag(ctx context.Context, id string, patch TagPatch) (tag *catalog.Tag, err error) {
	defer d.observe("update_tag", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		t, err := tx.GetTag(id)
		if err != nil {
			return err
		}

		spec := TagSpec{Name: t.Name, Color: t.Color}
		if name, ok := patch.Name.Get(); ok {
			spec.Name = strings.TrimSpace(name)
		}
		if color, ok := patch.Color.Get(); ok {
			spec.Color = strings.TrimSpace(color)
		}
		if err := validateTag(spec); err != nil {
			return err
		}

		t.Name, t.Color = spec.Name, spec.Color
		tag = t
		return tx.PutTag(t)
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag removes a tag and detaches it from every document in the same
// transaction. Deleting an unknown tag is a no-op.
func (d *Drive) DeleteTag(ctx context.Context, id string) (err error) {
	defer d.observe("delete_tag", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return err
	}

	var detached int
	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		if _, err := tx.GetTag(id); err != nil {
			if catalog.IsNotFound(err) {
				return nil
			}
			return err
		}

		docs, err := tx.ListTaggedDocuments(id)
		if err != nil {
			return err
		}

		now := d.now()
		for _, dc := range docs {
			dc.Tags = slices.DeleteFunc(dc.Tags, func(t string) bool { return t == id })
			touch(dc, now)
			if err := tx.PutDocument(dc); err != nil {
				return err
			}
		}
		detached = len(docs)

		return tx.DeleteTag(id)
	})
	if err != nil {
		return err
	}

	logger.Info("Deleted tag %s (detached from %d documents)", id, detached)
	return nil
}

// AddTagToDocument attaches tagID to a document. Adding a tag that is
// already attached returns the document unchanged.
func (d *Drive) AddTagToDocument(ctx context.Context, documentID, tagID string) (doc *catalog.Document, err error) {
	defer d.observe("add_tag", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		dc, err := tx.GetDocument(documentID)
		if err != nil {
			return err
		}
		if _, err := tx.GetTag(tagID); err != nil {
			return err
		}

		doc = dc
		if dc.HasTag(tagID) {
			return nil
		}
		dc.Tags = append(dc.Tags, tagID)
		touch(dc, d.now())
		return tx.PutDocument(dc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// RemoveTagFromDocument detaches tagID from a document. Removing a tag
// that is not attached returns the document unchanged.
func (d *Drive) RemoveTagFromDocument(ctx context.Context, documentID, tagID string) (doc *catalog.Document, err error) {
	defer d.observe("remove_tag", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		dc, err := tx.GetDocument(documentID)
		if err != nil {
			return err
		}

		doc = dc
		if !dc.HasTag(tagID) {
			return nil
		}
		dc.Tags = slices.DeleteFunc(dc.Tags, func(t string) bool { return t == tagID })
		touch(dc, d.now())
		return tx.PutDocument(dc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DocumentsByTag returns the documents carrying tagID.
func (d *Drive) DocumentsByTag(ctx context.Context, tagID string) ([]*catalog.Document, error) {
	return d.FilterByTag(ctx, tagID)
}

// GetTag returns one tag.
func (d *Drive) GetTag(ctx context.Context, id string) (tag *catalog.Tag, err error) {
	defer d.observe("get_tag", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		tag, err = tx.GetTag(id)
		return err
	})
	return tag, err
}

// ListTags returns every tag ordered by name.
func (d *Drive) ListTags(ctx context.Context) (tags []*catalog.Tag, err error) {
	defer d.observe("list_tags", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		tags, err = tx.ListTags()
		return err
	})
	return tags, err
}
