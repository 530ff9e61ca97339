package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonauth "coach_server/server/common/auth"
	"coach_server/server/common/infra/cache"
	"coach_server/server/mediaman/service"
)

type fakeObjectStore struct {
	puts []string
}

func (s *fakeObjectStore) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	s.puts = append(s.puts, key)
	return nil
}

func (s *fakeObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/signed/" + key, nil
}

func (s *fakeObjectStore) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func newTestHandler(store service.ObjectStore) (*gin.Engine, *commonauth.Service) {
	gin.SetMode(gin.TestMode)
	auth := commonauth.NewService("test-secret", 60)
	uploads := service.NewUploadService(store, cache.NewMemoryGuard(), nil, 150*1024*1024, 600*time.Second)
	h := NewHandler(uploads, auth)
	r := gin.New()
	h.RegisterRoutes(r)
	return r, auth
}

func multipartVideo(t *testing.T, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="take1.mp4"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadRequiresBearerToken(t *testing.T) {
	r, _ := newTestHandler(&fakeObjectStore{})

	body, contentType := multipartVideo(t, "video/mp4", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadRejectsWrongContentType(t *testing.T) {
	store := &fakeObjectStore{}
	r, auth := newTestHandler(store)
	token, err := auth.GenerateToken("u1")
	require.NoError(t, err)

	body, contentType := multipartVideo(t, "video/quicktime", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.puts, "rejected files must never reach storage")
}

func TestUploadSuccessReturnsPathAndPreview(t *testing.T) {
	store := &fakeObjectStore{}
	r, auth := newTestHandler(store)
	token, err := auth.GenerateToken("u1")
	require.NoError(t, err)

	body, contentType := multipartVideo(t, "video/mp4", bytes.Repeat([]byte("x"), 2048))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Path       string `json:"path"`
		PreviewURL string `json:"previewUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Regexp(t, `^user_u1/\d+\.mp4$`, out.Path)
	assert.Equal(t, "https://storage.test/signed/"+out.Path, out.PreviewURL)
	require.Len(t, store.puts, 1)
	assert.Equal(t, out.Path, store.puts[0])
}

func TestPresignDownloadRefusesForeignKeys(t *testing.T) {
	r, auth := newTestHandler(&fakeObjectStore{})
	token, err := auth.GenerateToken("u1")
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]string{"object_key": "user_u2/1700000000000.mp4"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/presign-download", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPresignUploadIssuesDerivedKey(t *testing.T) {
	r, auth := newTestHandler(&fakeObjectStore{})
	token, err := auth.GenerateToken("u9")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/presign-upload", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		ObjectKey string `json:"object_key"`
		URL       string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Regexp(t, `^user_u9/\d+\.mp4$`, out.ObjectKey)
	assert.Equal(t, "https://storage.test/put/"+out.ObjectKey, out.URL)
}
