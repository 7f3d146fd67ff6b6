package drive

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"golang.org/x/text/collate"
)

// SortOption selects the sort key of the read model.
type SortOption string

const (
	SortByName SortOption = "name"
	SortByDate SortOption = "date"
	SortBySize SortOption = "size"
)

// SortDirection selects ascending or descending order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort is a sort specification. The zero value sorts by name ascending.
type Sort struct {
	Option    SortOption    `json:"option"`
	Direction SortDirection `json:"direction"`
}

// ParseSort validates and normalizes option and direction. Empty strings
// select name and asc.
func ParseSort(option, direction string) (Sort, error) {
	s := Sort{Option: SortOption(strings.ToLower(option)), Direction: SortDirection(strings.ToLower(direction))}
	if s.Option == "" {
		s.Option = SortByName
	}
	if s.Direction == "" {
		s.Direction = SortAsc
	}

	switch s.Option {
	case SortByName, SortByDate, SortBySize:
	default:
		return Sort{}, catalog.NewError(catalog.ErrValidation, "unknown sort option %q", option)
	}
	switch s.Direction {
	case SortAsc, SortDesc:
	default:
		return Sort{}, catalog.NewError(catalog.ErrValidation, "unknown sort direction %q", direction)
	}
	return s, nil
}

// ViewQuery is the view state the read model is derived from.
type ViewQuery struct {
	FolderID *string `json:"folder_id"`
	Search   string  `json:"search"`
	Sort     Sort    `json:"sort"`
}

// ReadModel is what a client renders: the breadcrumb path of the current
// folder and the sorted folders and documents to show. Folders always
// come before documents.
type ReadModel struct {
	Path      []*catalog.Folder   `json:"path"`
	Folders   []*catalog.Folder   `json:"folders"`
	Documents []*catalog.Document `json:"documents"`
}

// Browse derives the read model for q from a single consistent snapshot.
//
// With a non-empty search the candidates are all folders and documents
// whose name contains the query; otherwise they are the children of
// q.FolderID.
func (d *Drive) Browse(ctx context.Context, q ViewQuery) (model *ReadModel, err error) {
	defer d.observe("browse", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	sortSpec, err := ParseSort(string(q.Sort.Option), string(q.Sort.Direction))
	if err != nil {
		return nil, err
	}
	search := strings.TrimSpace(q.Search)

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		path, err := pathTo(tx, q.FolderID)
		if err != nil {
			return err
		}

		var contents *Contents
		if search != "" {
			contents, err = searchAll(tx, search)
		} else {
			contents, err = childrenOf(tx, q.FolderID)
		}
		if err != nil {
			return err
		}

		model = &ReadModel{Path: path, Folders: contents.Folders, Documents: contents.Documents}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.sortModel(model, sortSpec)
	return model, nil
}

func searchAll(tx catalog.Tx, query string) (*Contents, error) {
	folders, err := tx.ListFolders()
	if err != nil {
		return nil, err
	}
	docs, err := tx.ListDocuments()
	if err != nil {
		return nil, err
	}

	folders = slices.DeleteFunc(folders, func(f *catalog.Folder) bool { return !matchesName(f.Name, query) })
	docs = slices.DeleteFunc(docs, func(dc *catalog.Document) bool { return !matchesName(dc.Name, query) })
	return &Contents{Folders: folders, Documents: docs}, nil
}

// sortModel sorts folders and documents separately. Ties are broken by id
// so the order is total.
func (d *Drive) sortModel(m *ReadModel, s Sort) {
	// Collators are not safe for concurrent use.
	coll := collate.New(d.locale)
	sign := 1
	if s.Direction == SortDesc {
		sign = -1
	}

	slices.SortFunc(m.Folders, func(a, b *catalog.Folder) int {
		var c int
		switch s.Option {
		case SortByName:
			c = coll.CompareString(a.Name, b.Name)
		case SortByDate:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		}
		if c != 0 {
			return sign * c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	slices.SortFunc(m.Documents, func(a, b *catalog.Document) int {
		var c int
		switch s.Option {
		case SortByName:
			c = coll.CompareString(a.Name, b.Name)
		case SortByDate:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case SortBySize:
			c = cmp.Compare(a.Size, b.Size)
		}
		if c != 0 {
			return sign * c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func (s Sort) String() string {
	return fmt.Sprintf("%s %s", s.Option, s.Direction)
}
