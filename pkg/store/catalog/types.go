package catalog

import (
	"slices"
	"time"
)

// User is an entry of the user directory. Users are seeded at startup and
// never mutated by drive operations.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Tag is a named, colored label attachable to documents.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Permission is an access level. Levels are totally ordered by Rank.
type Permission string

const (
	PermissionView  Permission = "view"
	PermissionEdit  Permission = "edit"
	PermissionOwner Permission = "owner"
)

// Rank returns the position of p in the order view < edit < owner, or -1
// for an unrecognized value.
func (p Permission) Rank() int {
	switch p {
	case PermissionView:
		return 0
	case PermissionEdit:
		return 1
	case PermissionOwner:
		return 2
	default:
		return -1
	}
}

// Valid reports whether p is one of the known permissions.
func (p Permission) Valid() bool {
	return p.Rank() >= 0
}

// Satisfies reports whether holding p grants required.
func (p Permission) Satisfies(required Permission) bool {
	return required.Valid() && p.Valid() && p.Rank() >= required.Rank()
}

// AccessEntry grants a permission on one resource to one user.
type AccessEntry struct {
	UserID     string     `json:"user_id"`
	Permission Permission `json:"permission"`
}

// Granted reports whether the entry for userID in access satisfies required.
func Granted(access []AccessEntry, userID string, required Permission) bool {
	for _, e := range access {
		if e.UserID == userID {
			return e.Permission.Satisfies(required)
		}
	}
	return false
}

// ResourceType discriminates the two kinds of access-controlled resources.
type ResourceType string

const (
	ResourceDocument ResourceType = "document"
	ResourceFolder   ResourceType = "folder"
)

func (t ResourceType) Valid() bool {
	return t == ResourceDocument || t == ResourceFolder
}

// FileType is the coarse document category shown to users.
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeDOC     FileType = "doc"
	FileTypeDOCX    FileType = "docx"
	FileTypeXLS     FileType = "xls"
	FileTypeXLSX    FileType = "xlsx"
	FileTypePPT     FileType = "ppt"
	FileTypePPTX    FileType = "pptx"
	FileTypeTXT     FileType = "txt"
	FileTypeCSV     FileType = "csv"
	FileTypeImage   FileType = "image"
	FileTypeUnknown FileType = "unknown"
)

// Folder is a node of the folder tree. A nil ParentID means the folder
// lives at the root.
type Folder struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	ParentID  *string       `json:"parent_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	CreatedBy string        `json:"created_by"`
	Access    []AccessEntry `json:"access"`
	Version   uint64        `json:"version"`
}

// Document is a stored file entry. Tags holds tag ids with set semantics;
// insertion order is kept for stable presentation.
type Document struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        FileType      `json:"type"`
	Size        int64         `json:"size"`
	FolderID    *string       `json:"folder_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CreatedBy   string        `json:"created_by"`
	Description string        `json:"description"`
	Starred     bool          `json:"starred"`
	Tags        []string      `json:"tags"`
	Access      []AccessEntry `json:"access"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	MediaType   string        `json:"media_type,omitempty"`
	ContentID   string        `json:"content_id,omitempty"`
	Version     uint64        `json:"version"`
}

// HasTag reports whether tagID is attached to d.
func (d *Document) HasTag(tagID string) bool {
	return slices.Contains(d.Tags, tagID)
}

// Clone returns a deep copy of f.
func (f *Folder) Clone() *Folder {
	if f == nil {
		return nil
	}
	c := *f
	c.ParentID = cloneID(f.ParentID)
	c.Access = slices.Clone(f.Access)
	return &c
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.FolderID = cloneID(d.FolderID)
	c.Tags = slices.Clone(d.Tags)
	c.Access = slices.Clone(d.Access)
	return &c
}

func (t *Tag) Clone() *Tag {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// SameID compares two optional ids; two nils are equal.
func SameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringID returns a pointer to a copy of id.
func StringID(id string) *string {
	return &id
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
