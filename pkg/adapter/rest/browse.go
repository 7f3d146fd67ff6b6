package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// browse serves the read model: GET /browse?folder=&q=&sort=&direction=.
// Items the caller cannot view are left out.
func (a *RESTAdapter) browse(c *gin.Context) {
	sort, err := drive.ParseSort(c.Query("sort"), c.Query("direction"))
	if err != nil {
		writeError(c, err)
		return
	}

	var folderID *string
	if v := strings.TrimSpace(c.Query("folder")); v != "" && v != rootID {
		if _, ok := a.requireFolder(c, v, catalog.PermissionView); !ok {
			return
		}
		folderID = &v
	}

	model, err := a.drive.Browse(c.Request.Context(), drive.ViewQuery{
		FolderID: folderID,
		Search:   c.Query("q"),
		Sort:     sort,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	model.Folders = visibleFolders(c, model.Folders)
	model.Documents = visibleDocuments(c, model.Documents)
	c.JSON(http.StatusOK, model)
}
