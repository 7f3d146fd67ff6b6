package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/marmos91/dittodrive/pkg/store/content"
)

// FileInfo describes the uploaded file as declared by the client.
type FileInfo struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MediaType string `json:"media_type"`
}

// UploadRequest describes a new document.
type UploadRequest struct {
	File FileInfo

	// Content holds the file bytes. When nil only metadata is recorded.
	Content io.Reader

	// Name is the display name; it defaults to File.Name.
	Name        string
	Description string
	FolderID    *string
	Tags        []string
	CreatedBy   string
}

// DocumentPatch lists the document fields to change. Absent fields are kept.
type DocumentPatch struct {
	Name        Optional[string]   `json:"name"`
	Description Optional[string]   `json:"description"`
	FolderID    Optional[*string]  `json:"folder_id"`
	Tags        Optional[[]string] `json:"tags"`
	IfVersion   Optional[uint64]   `json:"if_version"`
}

// Upload validates and stores a new document. The creator becomes its owner.
func (d *Drive) Upload(ctx context.Context, req UploadRequest) (doc *catalog.Document, err error) {
	defer d.observe("upload", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	if req.CreatedBy == "" {
		return nil, catalog.NewError(catalog.ErrValidation, "creator is required")
	}

	file := req.File
	if err := d.limits.CheckSize(file.Size); err != nil {
		return nil, err
	}

	var data []byte
	if req.Content != nil {
		data, err = io.ReadAll(io.LimitReader(req.Content, d.limits.MaxSize+1))
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		if err := d.limits.CheckSize(int64(len(data))); err != nil {
			return nil, err
		}
		file.Size = int64(len(data))
		if strings.TrimSpace(file.MediaType) == "" {
			file.MediaType = mimetype.Detect(data).String()
		}
	}

	if err := d.limits.CheckType(file.MediaType); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(file.Name)
	}
	if name, err = requireName("document", name); err != nil {
		return nil, err
	}

	fileType := DetectFileType(file.Name, file.MediaType)
	now := d.now()
	doc = &catalog.Document{
		ID:          d.newID(),
		Name:        name,
		Type:        fileType,
		Size:        file.Size,
		FolderID:    cloneParent(req.FolderID),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   req.CreatedBy,
		Description: req.Description,
		Tags:        dedupe(req.Tags),
		Access:      []catalog.AccessEntry{{UserID: req.CreatedBy, Permission: catalog.PermissionOwner}},
		Thumbnail:   d.thumbnailFor(fileType),
		MediaType:   normalizeMediaType(file.MediaType),
		Version:     1,
	}

	// Validate references before writing any bytes.
	err = d.store.View(ctx, func(tx catalog.Tx) error {
		return checkDocumentRefs(tx, doc.FolderID, doc.Tags)
	})
	if err != nil {
		return nil, err
	}

	if req.Content != nil && d.content != nil {
		doc.ContentID = doc.ID
		if err := d.content.WriteContent(ctx, content.ContentID(doc.ContentID), data); err != nil {
			return nil, fmt.Errorf("write content: %w", err)
		}
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		if err := checkDocumentRefs(tx, doc.FolderID, doc.Tags); err != nil {
			return err
		}
		return tx.PutDocument(doc)
	})
	if err != nil {
		d.discardContent(doc)
		return nil, err
	}

	d.metrics.RecordUploadBytes(doc.Size)
	logger.Info("Uploaded document %q (%s, %s, %s)", doc.Name, doc.ID, doc.Type, FormatFileSize(doc.Size))
	return doc, nil
}

func checkDocumentRefs(tx catalog.Tx, folderID *string, tags []string) error {
	if folderID != nil {
		if _, err := tx.GetFolder(*folderID); err != nil {
			return err
		}
	}
	for _, tagID := range tags {
		if _, err := tx.GetTag(tagID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateDocument applies patch to the document.
func (d *Drive) UpdateDocument(ctx context.Context, id string, patch DocumentPatch) (doc *catalog.Document, err error) {
	defer d.observe("update_document", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		dc, err := tx.GetDocument(id)
		if err != nil {
			return err
		}
		if err := checkVersion(patch.IfVersion, dc.Version, id); err != nil {
			return err
		}

		if name, ok := patch.Name.Get(); ok {
			if dc.Name, err = requireName("document", name); err != nil {
				return err
			}
		}
		if desc, ok := patch.Description.Get(); ok {
			dc.Description = desc
		}
		if folderID, ok := patch.FolderID.Get(); ok {
			if err := checkDocumentRefs(tx, folderID, nil); err != nil {
				return err
			}
			dc.FolderID = cloneParent(folderID)
		}
		if tags, ok := patch.Tags.Get(); ok {
			tags = dedupe(tags)
			if err := checkDocumentRefs(tx, nil, tags); err != nil {
				return err
			}
			dc.Tags = tags
		}

		touch(dc, d.now())
		doc = dc
		return tx.PutDocument(dc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a document. Its content blob is deleted after the
// catalog commit; a failure there is logged and left to the collector.
func (d *Drive) DeleteDocument(ctx context.Context, id string) (err error) {
	defer d.observe("delete_document", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return err
	}

	var doc *catalog.Document
	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		doc, err = tx.GetDocument(id)
		if err != nil {
			return err
		}
		return tx.DeleteDocument(id)
	})
	if err != nil {
		return err
	}

	d.discardContent(doc)
	logger.Info("Deleted document %s", id)
	return nil
}

func (d *Drive) discardContent(doc *catalog.Document) {
	if d.content == nil || doc.ContentID == "" {
		return
	}
	// Detached from the request context: the catalog change is final.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.content.Delete(ctx, content.ContentID(doc.ContentID)); err != nil {
		logger.Warn("Failed to delete content %s of document %s: %v", doc.ContentID, doc.ID, err)
	}
}

// SetStarred sets or clears the starred flag.
func (d *Drive) SetStarred(ctx context.Context, id string, starred bool) (doc *catalog.Document, err error) {
	defer d.observe("set_starred", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		dc, err := tx.GetDocument(id)
		if err != nil {
			return err
		}
		dc.Starred = starred
		touch(dc, d.now())
		doc = dc
		return tx.PutDocument(dc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument returns one document.
func (d *Drive) GetDocument(ctx context.Context, id string) (doc *catalog.Document, err error) {
	defer d.observe("get_document", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		doc, err = tx.GetDocument(id)
		return err
	})
	return doc, err
}

// OpenContent returns a reader over the stored bytes of a document.
func (d *Drive) OpenContent(ctx context.Context, id string) (rc io.ReadCloser, doc *catalog.Document, err error) {
	defer d.observe("open_content", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		doc, err = tx.GetDocument(id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if d.content == nil || doc.ContentID == "" {
		return nil, nil, &catalog.StoreError{Code: catalog.ErrNotFound, Message: "document has no content", ID: id}
	}

	rc, err = d.content.ReadContent(ctx, content.ContentID(doc.ContentID))
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, nil, &catalog.StoreError{Code: catalog.ErrNotFound, Message: "document content missing", ID: id}
		}
		return nil, nil, fmt.Errorf("read content: %w", err)
	}
	return rc, doc, nil
}

// ListDocuments returns every document in creation order.
func (d *Drive) ListDocuments(ctx context.Context) ([]*catalog.Document, error) {
	return d.filterDocuments(ctx, "list_documents", func(*catalog.Document) bool { return true })
}

// ListStarred returns the starred documents.
func (d *Drive) ListStarred(ctx context.Context) ([]*catalog.Document, error) {
	return d.filterDocuments(ctx, "list_starred", func(doc *catalog.Document) bool { return doc.Starred })
}

// FilterByFolder returns the documents directly inside folderID (nil for
// the root).
func (d *Drive) FilterByFolder(ctx context.Context, folderID *string) (docs []*catalog.Document, err error) {
	defer d.observe("filter_by_folder", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		docs, err = tx.ListFolderDocuments(folderID)
		return err
	})
	return docs, err
}

// FilterByTag returns the documents carrying tagID.
func (d *Drive) FilterByTag(ctx context.Context, tagID string) (docs []*catalog.Document, err error) {
	defer d.observe("filter_by_tag", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		docs, err = tx.ListTaggedDocuments(tagID)
		return err
	})
	return docs, err
}

// FilterByText returns the documents whose name contains query, ignoring
// case. An empty query matches everything.
func (d *Drive) FilterByText(ctx context.Context, query string) ([]*catalog.Document, error) {
	return d.filterDocuments(ctx, "filter_by_text", func(doc *catalog.Document) bool {
		return matchesName(doc.Name, query)
	})
}

func (d *Drive) filterDocuments(ctx context.Context, op string, keep func(*catalog.Document) bool) (docs []*catalog.Document, err error) {
	defer d.observe(op, time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		all, err := tx.ListDocuments()
		if err != nil {
			return err
		}
		docs = slices.DeleteFunc(all, func(doc *catalog.Document) bool { return !keep(doc) })
		return nil
	})
	return docs, err
}

func matchesName(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

func touch(doc *catalog.Document, now time.Time) {
	doc.UpdatedAt = now
	doc.Version++
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
