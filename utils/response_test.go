package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performJSON(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, JSONResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)

	var body JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSuccessEnvelope(t *testing.T) {
	w, body := performJSON(t, func(c *gin.Context) {
		Success(c, gin.H{"id": 7})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "success", body.Message)
	assert.NotNil(t, body.Data)
}

func TestErrorEnvelope(t *testing.T) {
	w, body := performJSON(t, func(c *gin.Context) {
		Error(c, http.StatusConflict, 40921, "already processed")
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40921, body.Code)
	assert.Equal(t, "already processed", body.Message)
	assert.Nil(t, body.Data)
}

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	AbortWithError(c, http.StatusUnauthorized, 40101, "nope")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73))
	assert.Error(t, err)
}

func TestSanitizeStripsScript(t *testing.T) {
	out := Sanitize(`hello <script>alert(1)</script><b>world</b>`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<b>world</b>")
}

func TestSanitizeTitleStripsAllMarkup(t *testing.T) {
	assert.Equal(t, "plain title", SanitizeTitle(`<b>plain</b> <a href="x">title</a>`))
}
