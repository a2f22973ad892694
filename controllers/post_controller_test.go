package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelhub/reelhub/config"
	"github.com/reelhub/reelhub/linkmeta"
	"github.com/reelhub/reelhub/middleware"
	"github.com/reelhub/reelhub/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.SetForTest(config.AppConfig{JWTSecret: "test-secret"})
	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()
	os.Exit(m.Run())
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

// fakeAuth stands in for the JWT middleware.
func fakeAuth(userID uint, username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Set(middleware.ContextUsernameKey, username)
	}
}

func postTestRouter(pc *PostController) *gin.Engine {
	r := gin.New()
	r.POST("/api/posts", fakeAuth(1, "alice"), pc.CreatePost)
	r.GET("/api/posts/:id", pc.GetPost)
	r.POST("/api/admin/posts/:id/requeue", fakeAuth(1, "root"), pc.RequeuePost)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateReelPost(t *testing.T) {
	gdb, mock := newMockDB(t)
	pc := NewPostController(gdb, linkmeta.NewResolver(config.AppConfig{}))
	r := postTestRouter(pc)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO .posts.`).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	w := postJSON(r, "/api/posts", `{"type":"reel","title":"My clip","video_url":"http://cdn/reels/u1/video.mp4"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Code int `json:"code"`
		Data struct {
			Post struct {
				Type             string `json:"type"`
				VideoURL         string `json:"video_url"`
				OriginalURL      string `json:"original_url"`
				ProcessingStatus string `json:"processing_status"`
			} `json:"post"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "reel", body.Data.Post.Type)
	assert.Equal(t, "PENDING", body.Data.Post.ProcessingStatus, "new reels enter the queue as PENDING")
	assert.Equal(t, "http://cdn/reels/u1/video.mp4", body.Data.Post.OriginalURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLinkPostResolvesMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><meta property="og:title" content="Linked Page"><meta property="og:description" content="desc"></head></html>`)
	}))
	defer srv.Close()

	gdb, mock := newMockDB(t)
	pc := NewPostController(gdb, linkmeta.NewResolver(config.AppConfig{LinkFetchTimeoutSec: 2}))
	r := postTestRouter(pc)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO .posts.`).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()

	w := postJSON(r, "/api/posts", fmt.Sprintf(`{"type":"link","link_url":%q}`, srv.URL))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			Post struct {
				LinkMetadata string `json:"link_metadata"`
			} `json:"post"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	var meta linkmeta.Metadata
	require.NoError(t, json.Unmarshal([]byte(body.Data.Post.LinkMetadata), &meta))
	assert.Equal(t, linkmeta.StatusSuccess, meta.Status)
	assert.Equal(t, "Linked Page", meta.Title)
}

// An unreachable link target must not block post creation.
func TestCreateLinkPostToleratesResolveFailure(t *testing.T) {
	srv := httptest.NewServer(nil)
	dead := srv.URL
	srv.Close()

	gdb, mock := newMockDB(t)
	pc := NewPostController(gdb, linkmeta.NewResolver(config.AppConfig{LinkFetchTimeoutSec: 1}))
	r := postTestRouter(pc)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO .posts.`).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	w := postJSON(r, "/api/posts", fmt.Sprintf(`{"type":"link","link_url":%q}`, dead))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			Post struct {
				LinkMetadata string `json:"link_metadata"`
			} `json:"post"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	var meta linkmeta.Metadata
	require.NoError(t, json.Unmarshal([]byte(body.Data.Post.LinkMetadata), &meta))
	assert.Equal(t, linkmeta.StatusFailed, meta.Status)
	assert.NotEmpty(t, meta.Error)
}

func TestCreatePostValidation(t *testing.T) {
	gdb, _ := newMockDB(t)
	pc := NewPostController(gdb, linkmeta.NewResolver(config.AppConfig{}))
	r := postTestRouter(pc)

	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"poll"}`},
		{"link without url", `{"type":"link"}`},
		{"reel without video", `{"type":"reel"}`},
		{"text without content", `{"type":"text"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/api/posts", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRequeuePost(t *testing.T) {
	gdb, mock := newMockDB(t)
	pc := NewPostController(gdb, linkmeta.NewResolver(config.AppConfig{}))
	r := postTestRouter(pc)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE .posts. SET .processing_status.=\?`).
		WithArgs("PENDING", sqlmock.AnyArg(), 42, "reel", "FAILED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := postJSON(r, "/api/admin/posts/42/requeue", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequeuePostNotFailed(t *testing.T) {
	gdb, mock := newMockDB(t)
	pc := NewPostController(gdb, linkmeta.NewResolver(config.AppConfig{}))
	r := postTestRouter(pc)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE .posts.`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	w := postJSON(r, "/api/admin/posts/42/requeue", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetPostNotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	pc := NewPostController(gdb, linkmeta.NewResolver(config.AppConfig{}))
	r := postTestRouter(pc)

	mock.ExpectQuery(`SELECT .* FROM .posts.`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts/999", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParsePagination(t *testing.T) {
	page, size := parsePagination("", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	page, size = parsePagination("3", "25")
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, size)

	page, size = parsePagination("-1", "500")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)
}
