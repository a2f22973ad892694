package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelhub/reelhub/config"
	"github.com/reelhub/reelhub/storage"
)

func uploadTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.NewLocal(dir, "http://localhost:8080/media")
	require.NoError(t, err)

	cfg := config.AppConfig{StorageBucket: "reels"}
	uc := NewUploadController(st, cfg)

	r := gin.New()
	r.POST("/api/uploads/reel", fakeAuth(3, "alice"), uc.UploadReel)
	return r, dir
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadReel(t *testing.T) {
	r, _ := uploadTestRouter(t)

	body, contentType := multipartBody(t, "file", "clip.mp4", []byte("video bytes"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/reel", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			URL string `json:"url"`
			Key string `json:"key"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Data.Key, "uploads/u3/"), resp.Data.Key)
	assert.True(t, strings.HasSuffix(resp.Data.Key, ".mp4"), resp.Data.Key)
	assert.Equal(t, "http://localhost:8080/media/reels/"+resp.Data.Key, resp.Data.URL)
}

func TestUploadReelRejectsUnsupportedFormat(t *testing.T) {
	r, _ := uploadTestRouter(t)

	body, contentType := multipartBody(t, "file", "document.pdf", []byte("%PDF"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/reel", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadReelMissingFile(t *testing.T) {
	r, _ := uploadTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/reel", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadedReelKeysNeverCollide(t *testing.T) {
	k1 := objectKey(1, ".mp4")
	k2 := objectKey(1, ".mp4")
	assert.NotEqual(t, k1, k2)
}
