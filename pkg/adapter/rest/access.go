package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

type refFunc func(id string) drive.ResourceRef

// requireResource loads the ACL of the addressed resource and checks the
// caller against it.
func (a *RESTAdapter) requireResource(c *gin.Context, ref drive.ResourceRef, required catalog.Permission) ([]catalog.AccessEntry, bool) {
	acl, err := a.drive.GetAccessControlList(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return acl, authorize(c, acl, required)
}

func (a *RESTAdapter) listAccess(ref refFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		acl, ok := a.requireResource(c, ref(c.Param("id")), catalog.PermissionView)
		if !ok {
			return
		}
		if acl == nil {
			acl = []catalog.AccessEntry{}
		}
		c.JSON(http.StatusOK, acl)
	}
}

type permissionBody struct {
	Permission catalog.Permission `json:"permission"`
}

func (a *RESTAdapter) setAccess(ref refFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body permissionBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}

		res := ref(c.Param("id"))
		if _, ok := a.requireResource(c, res, catalog.PermissionOwner); !ok {
			return
		}

		ctx := c.Request.Context()
		if err := a.drive.SetPermission(ctx, res, c.Param("userId"), body.Permission); err != nil {
			writeError(c, err)
			return
		}
		acl, err := a.drive.GetAccessControlList(ctx, res)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, acl)
	}
}

func (a *RESTAdapter) removeAccess(ref refFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := ref(c.Param("id"))
		if _, ok := a.requireResource(c, res, catalog.PermissionOwner); !ok {
			return
		}
		if err := a.drive.RemovePermission(c.Request.Context(), res, c.Param("userId")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type shareBody struct {
	Email      string             `json:"email"`
	Permission catalog.Permission `json:"permission"`
}

func (a *RESTAdapter) share(ref refFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body shareBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}

		res := ref(c.Param("id"))
		if _, ok := a.requireResource(c, res, catalog.PermissionOwner); !ok {
			return
		}

		user, err := a.drive.ShareWithEmail(c.Request.Context(), res, body.Email, body.Permission)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "permission": body.Permission})
	}
}

func (a *RESTAdapter) checkAccess(ref refFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		required := catalog.Permission(c.Query("permission"))
		if !required.Valid() {
			writeError(c, catalog.NewError(catalog.ErrValidation, "unknown permission %q", required))
			return
		}

		acl, ok := a.requireResource(c, ref(c.Param("id")), catalog.PermissionView)
		if !ok {
			return
		}

		userID := c.Param("userId")
		c.JSON(http.StatusOK, gin.H{
			"user_id":    userID,
			"permission": required,
			"granted":    catalog.Granted(acl, userID, required),
		})
	}
}
