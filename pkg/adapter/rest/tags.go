package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// Tags are shared by every user; any known caller may manage them.

func (a *RESTAdapter) listTags(c *gin.Context) {
	tags, err := a.drive.ListTags(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if tags == nil {
		tags = []*catalog.Tag{}
	}
	c.JSON(http.StatusOK, tags)
}

func (a *RESTAdapter) getTag(c *gin.Context) {
	tag, err := a.drive.GetTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (a *RESTAdapter) createTag(c *gin.Context) {
	var spec drive.TagSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		badRequest(c, err)
		return
	}

	tag, err := a.drive.CreateTag(c.Request.Context(), spec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (a *RESTAdapter) updateTag(c *gin.Context) {
	var patch drive.TagPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	tag, err := a.drive.UpdateTag(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (a *RESTAdapter) deleteTag(c *gin.Context) {
	if err := a.drive.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *RESTAdapter) tagDocuments(c *gin.Context) {
	docs, err := a.drive.DocumentsByTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, visibleDocuments(c, docs))
}
