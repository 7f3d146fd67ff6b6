package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

func (a *RESTAdapter) listUsers(c *gin.Context) {
	users, err := a.drive.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if users == nil {
		users = []*catalog.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (a *RESTAdapter) getUser(c *gin.Context) {
	user, err := a.drive.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type createFolderBody struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

func (a *RESTAdapter) createFolder(c *gin.Context) {
	var body createFolderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if !a.requireParent(c, body.ParentID) {
		return
	}

	folder, err := a.drive.CreateFolder(c.Request.Context(), drive.CreateFolderRequest{
		Name:      body.Name,
		ParentID:  body.ParentID,
		CreatedBy: caller(c).ID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func (a *RESTAdapter) getFolder(c *gin.Context) {
	folder, ok := a.requireFolder(c, c.Param("id"), catalog.PermissionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (a *RESTAdapter) updateFolder(c *gin.Context) {
	var patch drive.FolderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	if _, ok := a.requireFolder(c, id, catalog.PermissionEdit); !ok {
		return
	}
	if parentID, moving := patch.ParentID.Get(); moving && !a.requireParent(c, parentID) {
		return
	}

	folder, err := a.drive.UpdateFolder(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (a *RESTAdapter) deleteFolder(c *gin.Context) {
	id := c.Param("id")
	if _, ok := a.requireFolder(c, id, catalog.PermissionOwner); !ok {
		return
	}
	if err := a.drive.DeleteFolder(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *RESTAdapter) folderChildren(c *gin.Context) {
	folderID := folderParam(c)
	if folderID != nil {
		if _, ok := a.requireFolder(c, *folderID, catalog.PermissionView); !ok {
			return
		}
	}

	contents, err := a.drive.ChildrenOf(c.Request.Context(), folderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, drive.Contents{
		Folders:   visibleFolders(c, contents.Folders),
		Documents: visibleDocuments(c, contents.Documents),
	})
}

func (a *RESTAdapter) folderPath(c *gin.Context) {
	folderID := folderParam(c)
	if folderID != nil {
		if _, ok := a.requireFolder(c, *folderID, catalog.PermissionView); !ok {
			return
		}
	}

	path, err := a.drive.PathTo(c.Request.Context(), folderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, path)
}
