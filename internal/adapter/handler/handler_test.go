package handler_test

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zots0127/filebin/internal/adapter/handler"
	"github.com/zots0127/filebin/internal/adapter/middleware"
	"github.com/zots0127/filebin/internal/domain/entities"
	"github.com/zots0127/filebin/internal/session"
	"github.com/zots0127/filebin/internal/usecase"
	"github.com/zots0127/filebin/internal/usecase/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testTemplates = `
{{define "index.html"}}index error={{.error}}{{end}}
{{define "files.html"}}files user={{.user.Username}} count={{len .files}}{{end}}
{{define "proxy-upload.html"}}proxy-upload{{end}}
{{define "presigned-url.html"}}presigned-url{{end}}
`

type fixture struct {
	router *gin.Engine
	codec  *session.Codec
	users  *mocks.MockUserRepository
	files  *mocks.MockFileRepository
	blobs  *mocks.MockBlobStore
}

func newFixture(t *testing.T, requireStorageOwner bool) *fixture {
	t.Helper()

	users := new(mocks.MockUserRepository)
	files := new(mocks.MockFileRepository)
	blobs := new(mocks.MockBlobStore)

	logger := log.New(io.Discard)
	codec := session.NewCodec([]byte("test-secret"), 0)
	coordinator := usecase.NewUploadCoordinator(files, blobs, logger)
	gate := middleware.NewAccessGate(codec)

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("test").Parse(testTemplates)))
	handler.RegisterRoutes(router, gate,
		handler.NewPagesHandler(users, coordinator, codec, requireStorageOwner, logger),
		handler.NewAPIHandler(coordinator, logger),
	)

	return &fixture{router: router, codec: codec, users: users, files: files, blobs: blobs}
}

func (f *fixture) sessionCookie(t *testing.T, user *entities.User) *http.Cookie {
	t.Helper()
	token, err := f.codec.Issue(user)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestLoginSetsCookieAndListsEmptyFiles(t *testing.T) {
	f := newFixture(t, true)

	f.users.On("GetByUsername", mock.Anything, "test").
		Return(&entities.User{ID: "u1", Username: "test"}, nil)

	form := url.Values{"username": {"test"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/files", w.Header().Get("Location"))

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "expected a session cookie")
	assert.True(t, cookie.HttpOnly)

	// The fresh session sees an empty listing.
	f.files.On("ListActiveByUser", mock.Anything, "u1").
		Return([]*entities.FileRecord{}, nil)

	listReq := httptest.NewRequest(http.MethodGet, "/files", nil)
	listReq.AddCookie(cookie)
	listResp := f.do(listReq)

	require.Equal(t, http.StatusOK, listResp.Code)
	assert.Contains(t, listResp.Body.String(), "count=0")
}

func TestLoginUnknownUserRedirectsWithError(t *testing.T) {
	f := newFixture(t, true)

	f.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, entities.ErrNotFound)

	form := url.Values{"username": {"ghost"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/?error=login-failed", w.Header().Get("Location"))
}

func TestLandingRedirectsLoggedInUsers(t *testing.T) {
	f := newFixture(t, true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(f.sessionCookie(t, &entities.User{ID: "u1", Username: "test"}))
	w := f.do(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/files", w.Header().Get("Location"))
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture(t, true)

	w := f.do(httptest.NewRequest(http.MethodGet, "/logout", nil))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestFilesRequiresSession(t *testing.T) {
	f := newFixture(t, true)

	w := f.do(httptest.NewRequest(http.MethodGet, "/files", nil))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestPresignedUploadThenConfirm(t *testing.T) {
	f := newFixture(t, true)
	cookie := f.sessionCookie(t, &entities.User{ID: "u1", Username: "test"})

	keyPattern := regexp.MustCompile(`^u1/[a-f0-9]{32}\.png$`)
	f.blobs.On("PresignPut", mock.Anything, mock.Anything, mock.Anything).
		Return("https://bucket.example/put?sig=x", nil)
	f.files.On("Create", mock.Anything, mock.MatchedBy(func(rec *entities.FileRecord) bool {
		return !rec.IsActive && keyPattern.MatchString(rec.StorageKey)
	})).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/presigned-upload-url",
		strings.NewReader(`{"extension":"png"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		URL        string `json:"url"`
		StorageKey string `json:"storageKey"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://bucket.example/put?sig=x", resp.URL)
	assert.Regexp(t, keyPattern, resp.StorageKey)

	// Confirm flips the record active.
	f.files.On("GetByStorageKey", mock.Anything, resp.StorageKey).
		Return(&entities.FileRecord{ID: "f1", UserID: "u1", StorageKey: resp.StorageKey}, nil)
	f.files.On("Activate", mock.Anything, resp.StorageKey).Return(nil)

	confirm := httptest.NewRequest(http.MethodPut, "/api/confirm-upload",
		strings.NewReader(`{"storageKey":"`+resp.StorageKey+`"}`))
	confirm.Header.Set("Content-Type", "application/json")
	confirm.AddCookie(cookie)
	cw := f.do(confirm)

	require.Equal(t, http.StatusOK, cw.Code)
	f.files.AssertCalled(t, "Activate", mock.Anything, resp.StorageKey)
}

func TestPresignedUploadURL_BadBody(t *testing.T) {
	f := newFixture(t, true)
	cookie := f.sessionCookie(t, &entities.User{ID: "u1", Username: "test"})

	for _, body := range []string{``, `{}`, `{"extension":""}`, `not-json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/presigned-upload-url", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(cookie)
		w := f.do(req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestPresignedUploadURL_BlobStoreDown(t *testing.T) {
	f := newFixture(t, true)
	cookie := f.sessionCookie(t, &entities.User{ID: "u1", Username: "test"})

	f.blobs.On("PresignPut", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodPost, "/api/presigned-upload-url",
		strings.NewReader(`{"extension":"png"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := f.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	f.files.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestConfirmUpload_UnknownKey(t *testing.T) {
	f := newFixture(t, true)
	cookie := f.sessionCookie(t, &entities.User{ID: "u1", Username: "test"})

	f.files.On("GetByStorageKey", mock.Anything, "u1/nope.png").Return(nil, entities.ErrNotFound)

	req := httptest.NewRequest(http.MethodPut, "/api/confirm-upload",
		strings.NewReader(`{"storageKey":"u1/nope.png"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := f.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteForeignFileReturnsNotFound(t *testing.T) {
	f := newFixture(t, true)
	cookie := f.sessionCookie(t, &entities.User{ID: "u1", Username: "test"})

	f.files.On("GetByID", mock.Anything, "f9").
		Return(&entities.FileRecord{ID: "f9", UserID: "u2", StorageKey: "u2/x.png"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/files/delete/f9", nil)
	req.AddCookie(cookie)
	w := f.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	f.blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteFileRedirectsOnSuccess(t *testing.T) {
	f := newFixture(t, true)
	cookie := f.sessionCookie(t, &entities.User{ID: "u1", Username: "test"})

	f.files.On("GetByID", mock.Anything, "f1").
		Return(&entities.FileRecord{ID: "f1", UserID: "u1", StorageKey: "u1/x.png"}, nil)
	f.blobs.On("Delete", mock.Anything, "u1/x.png").Return(nil)
	f.files.On("Delete", mock.Anything, "f1").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/files/delete/f1", nil)
	req.AddCookie(cookie)
	w := f.do(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/files", w.Header().Get("Location"))
}

func TestStorageRoute_OwnerPolicyEnforced(t *testing.T) {
	f := newFixture(t, true)

	// Anonymous caller is rejected outright.
	w := f.do(httptest.NewRequest(http.MethodGet, "/storage/u1/abc.png", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A session for another user is rejected without touching the store.
	req := httptest.NewRequest(http.MethodGet, "/storage/u1/abc.png", nil)
	req.AddCookie(f.sessionCookie(t, &entities.User{ID: "u2", Username: "other"}))
	w = f.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	f.blobs.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything)

	// The owner streams the bytes.
	f.blobs.On("Stream", mock.Anything, "u1/abc.png").
		Return(io.NopCloser(strings.NewReader("payload")), nil)

	req = httptest.NewRequest(http.MethodGet, "/storage/u1/abc.png", nil)
	req.AddCookie(f.sessionCookie(t, &entities.User{ID: "u1", Username: "test"}))
	w = f.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payload", w.Body.String())
}

func TestStorageRoute_OwnerPolicyDisabled(t *testing.T) {
	f := newFixture(t, false)

	f.blobs.On("Stream", mock.Anything, "u1/abc.png").
		Return(io.NopCloser(strings.NewReader("payload")), nil)

	// With the policy off the random key is the whole access boundary.
	w := f.do(httptest.NewRequest(http.MethodGet, "/storage/u1/abc.png", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payload", w.Body.String())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, true)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
}
