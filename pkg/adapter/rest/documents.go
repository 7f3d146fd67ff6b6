package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// genericMediaType is what browsers and curl send for unknown files; it
// is replaced by content sniffing.
const genericMediaType = "application/octet-stream"

// uploadDocument accepts multipart/form-data with a "file" part and the
// optional fields name, description, folder_id and tags (repeated).
func (a *RESTAdapter) uploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("file is required: %w", err))
		return
	}

	var folderID *string
	if v := strings.TrimSpace(c.PostForm("folder_id")); v != "" && v != rootID {
		folderID = &v
	}
	if !a.requireParent(c, folderID) {
		return
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	mediaType := fh.Header.Get("Content-Type")
	if mediaType == genericMediaType {
		mediaType = ""
	}

	doc, err := a.drive.Upload(c.Request.Context(), drive.UploadRequest{
		File:        drive.FileInfo{Name: fh.Filename, Size: fh.Size, MediaType: mediaType},
		Content:     f,
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		FolderID:    folderID,
		Tags:        c.PostFormArray("tags"),
		CreatedBy:   caller(c).ID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// documentQuery holds the optional list filters; all given filters apply.
type documentQuery struct {
	folderSet bool
	folderID  *string
	tag       string
	text      string
	starred   *bool
}

func parseDocumentQuery(c *gin.Context) (documentQuery, error) {
	var q documentQuery
	if v, ok := c.GetQuery("folder"); ok {
		q.folderSet = true
		if v != "" && v != rootID {
			q.folderID = &v
		}
	}
	q.tag = c.Query("tag")
	q.text = strings.TrimSpace(c.Query("q"))
	if v := c.Query("starred"); v != "" {
		starred, err := strconv.ParseBool(v)
		if err != nil {
			return q, catalog.NewError(catalog.ErrValidation, "invalid starred value %q", v)
		}
		q.starred = &starred
	}
	return q, nil
}

func (q documentQuery) matches(doc *catalog.Document) bool {
	if q.folderSet {
		switch {
		case q.folderID == nil && doc.FolderID != nil:
			return false
		case q.folderID != nil && (doc.FolderID == nil || *doc.FolderID != *q.folderID):
			return false
		}
	}
	if q.tag != "" && !doc.HasTag(q.tag) {
		return false
	}
	if q.text != "" && !strings.Contains(strings.ToLower(doc.Name), strings.ToLower(q.text)) {
		return false
	}
	if q.starred != nil && doc.Starred != *q.starred {
		return false
	}
	return true
}

func (a *RESTAdapter) listDocuments(c *gin.Context) {
	q, err := parseDocumentQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	var docs []*catalog.Document
	switch {
	case q.tag != "":
		docs, err = a.drive.FilterByTag(ctx, q.tag)
	case q.folderSet:
		docs, err = a.drive.FilterByFolder(ctx, q.folderID)
	case q.text != "":
		docs, err = a.drive.FilterByText(ctx, q.text)
	case q.starred != nil && *q.starred:
		docs, err = a.drive.ListStarred(ctx)
	default:
		docs, err = a.drive.ListDocuments(ctx)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	out := visibleDocuments(c, docs)
	kept := out[:0]
	for _, doc := range out {
		if q.matches(doc) {
			kept = append(kept, doc)
		}
	}
	c.JSON(http.StatusOK, kept)
}

func (a *RESTAdapter) getDocument(c *gin.Context) {
	doc, ok := a.requireDocument(c, c.Param("id"), catalog.PermissionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (a *RESTAdapter) documentContent(c *gin.Context) {
	if _, ok := a.requireDocument(c, c.Param("id"), catalog.PermissionView); !ok {
		return
	}

	rc, doc, err := a.drive.OpenContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	mediaType := doc.MediaType
	if mediaType == "" {
		mediaType = genericMediaType
	}
	c.DataFromReader(http.StatusOK, doc.Size, mediaType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.Name),
	})
}

func (a *RESTAdapter) updateDocument(c *gin.Context) {
	var patch drive.DocumentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	if _, ok := a.requireDocument(c, id, catalog.PermissionEdit); !ok {
		return
	}
	if folderID, moving := patch.FolderID.Get(); moving && !a.requireParent(c, folderID) {
		return
	}

	doc, err := a.drive.UpdateDocument(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (a *RESTAdapter) deleteDocument(c *gin.Context) {
	id := c.Param("id")
	if _, ok := a.requireDocument(c, id, catalog.PermissionOwner); !ok {
		return
	}
	if err := a.drive.DeleteDocument(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type starBody struct {
	Starred bool `json:"starred"`
}

func (a *RESTAdapter) starDocument(c *gin.Context) {
	var body starBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	if _, ok := a.requireDocument(c, id, catalog.PermissionView); !ok {
		return
	}

	doc, err := a.drive.SetStarred(c.Request.Context(), id, body.Starred)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (a *RESTAdapter) addDocumentTag(c *gin.Context) {
	id := c.Param("id")
	if _, ok := a.requireDocument(c, id, catalog.PermissionEdit); !ok {
		return
	}

	doc, err := a.drive.AddTagToDocument(c.Request.Context(), id, c.Param("tagId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (a *RESTAdapter) removeDocumentTag(c *gin.Context) {
	id := c.Param("id")
	if _, ok := a.requireDocument(c, id, catalog.PermissionEdit); !ok {
		return
	}

	doc, err := a.drive.RemoveTagFromDocument(c.Request.Context(), id, c.Param("tagId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
