package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
	catalogmemory "github.com/marmos91/dittodrive/pkg/store/catalog/memory"
	contentmemory "github.com/marmos91/dittodrive/pkg/store/content/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

type apiEnv struct {
	t       *testing.T
	adapter *RESTAdapter
	drive   *drive.Drive
}

func newAPIEnv(t *testing.T, config RESTConfig, mutate ...func(*drive.Options)) *apiEnv {
	t.Helper()

	opts := drive.Options{Content: contentmemory.NewMemoryContentStore()}
	for _, m := range mutate {
		m(&opts)
	}
	d, err := drive.New(catalogmemory.NewMemoryCatalogStore(), opts)
	require.NoError(t, err)

	require.NoError(t, d.RegisterUsers(context.Background(),
		&catalog.User{ID: alice, Name: "Alice", Email: "alice@example.com"},
		&catalog.User{ID: bob, Name: "Bob", Email: "bob@example.com"},
	))

	a := New(config, nil)
	a.SetDrive(d)
	return &apiEnv{t: t, adapter: a, drive: d}
}

func (e *apiEnv) do(method, path, user string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}

	w := httptest.NewRecorder()
	e.adapter.Handler().ServeHTTP(w, req)
	return w
}

func (e *apiEnv) upload(user, fileName string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	e.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(e.t, err)
	_, err = part.Write(data)
	require.NoError(e.t, err)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(HeaderUserID, user)

	w := httptest.NewRecorder()
	e.adapter.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{})
	w := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])
}

func TestIdentity(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{})

	w := env.do(http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/v1/users", "user-mallory", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unknown user", errorMessage(t, w))

	w = env.do(http.MethodGet, "/api/v1/users", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]catalog.User](t, w), 2)

	w = env.do(http.MethodGet, "/api/v1/users/"+bob, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bob", decode[catalog.User](t, w).Name)
}

func TestFolderPermissions(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{})

	w := env.do(http.MethodPost, "/api/v1/folders", alice, map[string]any{"name": "Projects"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	projects := decode[catalog.Folder](t, w)
	folderURL := "/api/v1/folders/" + projects.ID

	// Not shared yet.
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, folderURL, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/folders/missing", bob, nil).Code)

	w = env.do(http.MethodPost, folderURL+"/share", alice, map[string]any{"email": "BOB@example.com", "permission": "view"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, folderURL, bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPatch, folderURL, bob, map[string]any{"name": "Mine"}).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, folderURL, bob, nil).Code)
	assert.Equal(t, http.StatusForbidden,
		env.do(http.MethodPost, "/api/v1/folders", bob, map[string]any{"name": "Sub", "parent_id": projects.ID}).Code,
		"view does not allow creating inside")

	w = env.do(http.MethodPut, folderURL+"/access/"+bob, alice, map[string]any{"permission": "edit"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	acl := decode[[]catalog.AccessEntry](t, w)
	assert.Equal(t, []catalog.AccessEntry{
		{UserID: alice, Permission: catalog.PermissionOwner},
		{UserID: bob, Permission: catalog.PermissionEdit},
	}, acl)

	w = env.do(http.MethodPost, "/api/v1/folders", bob, map[string]any{"name": "Sub", "parent_id": projects.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(http.MethodGet, folderURL+"/children", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[drive.Contents](t, w).Folders, 1)

	w = env.do(http.MethodDelete, folderURL, alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorMessage(t, w), "cannot delete folder with subfolders")
}

func TestFolderValidationAndPath(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{})

	w := env.do(http.MethodPost, "/api/v1/folders", alice, map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "folder name is required", errorMessage(t, w))

	parent := decode[catalog.Folder](t, env.do(http.MethodPost, "/api/v1/folders", alice, map[string]any{"name": "A"}))
	child := decode[catalog.Folder](t, env.do(http.MethodPost, "/api/v1/folders", alice, map[string]any{"name": "B", "parent_id": parent.ID}))

	w = env.do(http.MethodGet, "/api/v1/folders/"+child.ID+"/path", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	path := decode[[]catalog.Folder](t, w)
	require.Len(t, path, 2)
	assert.Equal(t, "A", path[0].Name)
	assert.Equal(t, "B", path[1].Name)

	w = env.do(http.MethodGet, "/api/v1/folders/root/path", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = env.do(http.MethodPatch, "/api/v1/folders/"+parent.ID, alice, map[string]any{"parent_id": child.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, "/api/v1/folders/"+parent.ID, alice, map[string]any{"name": "Renamed", "if_version": 99})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPatch, "/api/v1/folders/"+child.ID, alice, map[string]any{"parent_id": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[catalog.Folder](t, w).ParentID)
}

func TestUploadAndDownload(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{})

	w := env.upload(alice, "report.pdf", pdfBytes, map[string]string{"description": "Q1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[catalog.Document](t, w)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.Equal(t, catalog.FileTypePDF, doc.Type)
	assert.Equal(t, int64(len(pdfBytes)), doc.Size)
	assert.Equal(t, "application/pdf", doc.MediaType)

	w = env.do(http.MethodGet, "/api/v1/documents/"+doc.ID+"/content", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfBytes, w.Body.Bytes())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/v1/documents/"+doc.ID+"/content", bob, nil).Code)

	w = env.upload(alice, "notes.bin", []byte{0x00, 0x01, 0x02, 0x03}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file type not supported", errorMessage(t, w))
}

func TestUploadTooLarge(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{}, func(o *drive.Options) {
		o.Limits = drive.UploadLimits{MaxSize: 16}
	})

	w := env.upload(alice, "report.pdf", pdfBytes, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "file is too large")
}

func TestDocumentListingAndTags(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{})

	folder := decode[catalog.Folder](t, env.do(http.MethodPost, "/api/v1/folders", alice, map[string]any{"name": "Finance"}))
	inFolder := decode[catalog.Document](t, env.upload(alice, "budget.pdf", pdfBytes, map[string]string{"folder_id": folder.ID}))
	atRoot := decode[catalog.Document](t, env.upload(alice, "readme.pdf", pdfBytes, nil))

	w := env.do(http.MethodGet, "/api/v1/documents", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]catalog.Document](t, w), "nothing shared with bob")

	w = env.do(http.MethodGet, "/api/v1/documents?folder=root", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode[[]catalog.Document](t, w)
	require.Len(t, docs, 1)
	assert.Equal(t, atRoot.ID, docs[0].ID)

	w = env.do(http.MethodPost, "/api/v1/tags", alice, map[string]any{"name": "Urgent", "color": "#EA4335"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tag := decode[catalog.Tag](t, w)

	w = env.do(http.MethodPost, "/api/v1/tags", alice, map[string]any{"name": "Bad", "color": "blue-ish"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/v1/documents/"+inFolder.ID+"/tags/"+tag.ID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{tag.ID}, decode[catalog.Document](t, w).Tags)

	w = env.do(http.MethodGet, "/api/v1/tags/"+tag.ID+"/documents", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]catalog.Document](t, w), 1)

	w = env.do(http.MethodGet, "/api/v1/documents?tag="+tag.ID+"&q=BUDGET", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]catalog.Document](t, w), 1)

	w = env.do(http.MethodPut, "/api/v1/documents/"+atRoot.ID+"/star", alice, map[string]any{"starred": true})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/v1/documents?starred=true", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	starred := decode[[]catalog.Document](t, w)
	require.Len(t, starred, 1)
	assert.Equal(t, atRoot.ID, starred[0].ID)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/documents?starred=maybe", alice, nil).Code)

	w = env.do(http.MethodDelete, "/api/v1/tags/"+tag.ID, alice, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodGet, "/api/v1/documents/"+inFolder.ID, alice, nil)
	assert.Empty(t, decode[catalog.Document](t, w).Tags, "tag deletion cascades")

	w = env.do(http.MethodDelete, "/api/v1/documents/"+inFolder.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(http.MethodDelete, "/api/v1/documents/"+inFolder.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/documents/"+inFolder.ID, alice, nil).Code)
}

func TestDocumentUpdate(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{})
	doc := decode[catalog.Document](t, env.upload(alice, "draft.pdf", pdfBytes, map[string]string{"description": "v1"}))
	url := "/api/v1/documents/" + doc.ID

	w := env.do(http.MethodPatch, url, alice, map[string]any{"name": "final.pdf"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[catalog.Document](t, w)
	assert.Equal(t, "final.pdf", updated.Name)
	assert.Equal(t, "v1", updated.Description)

	w = env.do(http.MethodPatch, url, alice, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, url+"/share", alice, map[string]any{"email": "bob@example.com", "permission": "view"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPatch, url, bob, map[string]any{"name": "x.pdf"}).Code)

	w = env.do(http.MethodGet, url+"/access/"+bob+"/check?permission=view", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["granted"])

	w = env.do(http.MethodGet, url+"/access/"+bob+"/check?permission=edit", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["granted"])

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, url+"/access/"+bob+"/check?permission=admin", bob, nil).Code)

	w = env.do(http.MethodDelete, url+"/access/"+bob, alice, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, url+"/access", bob, nil).Code)

	w = env.do(http.MethodPost, url+"/share", alice, map[string]any{"email": "nobody@example.com", "permission": "view"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorMessage(t, w), "user not found")
}

func TestBrowse(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{})
	env.do(http.MethodPost, "/api/v1/folders", alice, map[string]any{"name": "Zeta"})
	env.do(http.MethodPost, "/api/v1/folders", alice, map[string]any{"name": "alpha"})
	env.upload(alice, "Beta.pdf", pdfBytes, nil)

	w := env.do(http.MethodGet, "/api/v1/browse?sort=name&direction=desc", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	model := decode[drive.ReadModel](t, w)
	require.Len(t, model.Folders, 2)
	assert.Equal(t, "Zeta", model.Folders[0].Name)
	assert.Equal(t, "alpha", model.Folders[1].Name)
	require.Len(t, model.Documents, 1)
	assert.Empty(t, model.Path)

	w = env.do(http.MethodGet, "/api/v1/browse?q=ALP", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	model = decode[drive.ReadModel](t, w)
	assert.Len(t, model.Folders, 1)
	assert.Empty(t, model.Documents)

	w = env.do(http.MethodGet, "/api/v1/browse", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	model = decode[drive.ReadModel](t, w)
	assert.Empty(t, model.Folders)
	assert.Empty(t, model.Documents)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/browse?sort=color", alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/browse?folder=missing", alice, nil).Code)
}

func TestRateLimit(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 1}})

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/users", alice, nil).Code)
	w := env.do(http.MethodGet, "/api/v1/users", alice, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/users", bob, nil).Code, "buckets are per caller")
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "", nil).Code, "health checks are not limited")
}

func TestRateLimit_UnknownIdentities(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 2}})

	// A fresh made-up identity per request still drains the address budget.
	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		codes = append(codes, env.do(http.MethodGet, "/api/v1/users", fmt.Sprintf("ghost-%d", i), nil).Code)
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)

	w := env.do(http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "missing identities share the address budget")
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Other addresses are unaffected.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.RemoteAddr = "198.51.100.7:4321"
	req.Header.Set(HeaderUserID, alice)
	rec := httptest.NewRecorder()
	env.adapter.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_SharedAddress(t *testing.T) {
	env := newAPIEnv(t, RESTConfig{RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 2}})

	// Identified callers behind one address keep separate budgets.
	for _, user := range []string{alice, alice, bob, bob} {
		assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/users", user, nil).Code, user)
	}
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodGet, "/api/v1/users", alice, nil).Code)
}

func TestServeAndStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	env := newAPIEnv(t, RESTConfig{Port: port, ShutdownTimeout: time.Second})
	assert.Equal(t, "REST", env.adapter.Protocol())
	assert.Equal(t, port, env.adapter.Port())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.adapter.Serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	require.NoError(t, env.adapter.Stop(context.Background()), "Stop is idempotent")
}

func TestServeWithoutDrive(t *testing.T) {
	a := New(RESTConfig{}, nil)
	require.Error(t, a.Serve(context.Background()))
}
