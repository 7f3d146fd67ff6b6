package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// rootID addresses the root folder in paths.
const rootID = "root"

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func (a *RESTAdapter) routes() *gin.Engine {
	e := gin.New()
	e.Use(a.recovery(), a.observe())

	e.GET("/healthz", a.healthz)

	api := e.Group("/api/v1", a.throttleAddress(), a.identify(), a.rateLimit())

	users := api.Group("/users")
	{
		users.GET("", a.listUsers)
		users.GET("/:id", a.getUser)
	}

	folders := api.Group("/folders")
	{
		folders.POST("", a.createFolder)
		folders.GET("/:id", a.getFolder)
		folders.PATCH("/:id", a.updateFolder)
		folders.DELETE("/:id", a.deleteFolder)
		folders.GET("/:id/children", a.folderChildren)
		folders.GET("/:id/path", a.folderPath)
		a.accessRoutes(folders, drive.FolderRef)
	}

	documents := api.Group("/documents")
	{
		documents.POST("", a.uploadDocument)
		documents.GET("", a.listDocuments)
		documents.GET("/:id", a.getDocument)
		documents.GET("/:id/content", a.documentContent)
		documents.PATCH("/:id", a.updateDocument)
		documents.DELETE("/:id", a.deleteDocument)
		documents.PUT("/:id/star", a.starDocument)
		documents.PUT("/:id/tags/:tagId", a.addDocumentTag)
		documents.DELETE("/:id/tags/:tagId", a.removeDocumentTag)
		a.accessRoutes(documents, drive.DocumentRef)
	}

	tags := api.Group("/tags")
	{
		tags.GET("", a.listTags)
		tags.POST("", a.createTag)
		tags.GET("/:id", a.getTag)
		tags.PATCH("/:id", a.updateTag)
		tags.DELETE("/:id", a.deleteTag)
		tags.GET("/:id/documents", a.tagDocuments)
	}

	api.GET("/browse", a.browse)

	return e
}

func (a *RESTAdapter) accessRoutes(g *gin.RouterGroup, ref func(string) drive.ResourceRef) {
	g.GET("/:id/access", a.listAccess(ref))
	g.PUT("/:id/access/:userId", a.setAccess(ref))
	g.DELETE("/:id/access/:userId", a.removeAccess(ref))
	g.GET("/:id/access/:userId/check", a.checkAccess(ref))
	g.POST("/:id/share", a.share(ref))
}

func (a *RESTAdapter) healthz(c *gin.Context) {
	if a.drive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	if err := a.drive.Healthcheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// folderParam resolves the :id path segment, mapping "root" to nil.
func folderParam(c *gin.Context) *string {
	id := c.Param("id")
	if id == rootID {
		return nil
	}
	return &id
}

// authorize aborts with 403 unless the caller holds required in access.
func authorize(c *gin.Context, access []catalog.AccessEntry, required catalog.Permission) bool {
	if catalog.Granted(access, caller(c).ID, required) {
		return true
	}
	writeError(c, errPermissionDenied)
	return false
}

// requireFolder loads a folder and checks the caller's permission on it.
func (a *RESTAdapter) requireFolder(c *gin.Context, id string, required catalog.Permission) (*catalog.Folder, bool) {
	f, err := a.drive.GetFolder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return f, authorize(c, f.Access, required)
}

// requireParent checks that the caller may create inside parentID. Root
// level creation is open to every known user.
func (a *RESTAdapter) requireParent(c *gin.Context, parentID *string) bool {
	if parentID == nil {
		return true
	}
	_, ok := a.requireFolder(c, *parentID, catalog.PermissionEdit)
	return ok
}

func (a *RESTAdapter) requireDocument(c *gin.Context, id string, required catalog.Permission) (*catalog.Document, bool) {
	doc, err := a.drive.GetDocument(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return doc, authorize(c, doc.Access, required)
}

// visibleFolders keeps the folders the caller may view.
func visibleFolders(c *gin.Context, folders []*catalog.Folder) []*catalog.Folder {
	userID := caller(c).ID
	out := make([]*catalog.Folder, 0, len(folders))
	for _, f := range folders {
		if catalog.Granted(f.Access, userID, catalog.PermissionView) {
			out = append(out, f)
		}
	}
	return out
}

func visibleDocuments(c *gin.Context, docs []*catalog.Document) []*catalog.Document {
	userID := caller(c).ID
	out := make([]*catalog.Document, 0, len(docs))
	for _, d := range docs {
		if catalog.Granted(d.Access, userID, catalog.PermissionView) {
			out = append(out, d)
		}
	}
	return out
}
