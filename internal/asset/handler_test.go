package asset

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHandler_UploadImage(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)

	req := multipartUpload(t, "pic.png", "image/png", encodePNG(t, 12, 8))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.Width)
	assert.Equal(t, 8, resp.Height)
	assert.Equal(t, "png", resp.Type)
	assert.Equal(t, "pic.png", resp.Name)
	assert.True(t, strings.HasPrefix(resp.ID, "asset_"), resp.ID)
	assert.Equal(t, "/assets/"+resp.ID+".png", resp.URL)

	_, err := os.Stat(filepath.Join(dir, resp.ID+".png"))
	assert.NoError(t, err, "file stored on disk")
}

func TestHandler_UploadVideoStoredAsIs(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)

	payload := []byte("\x1aE\xdf\xa3 not a real container")
	req := multipartUpload(t, "clip.webm", "video/webm", payload)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "webm", resp.Type)
	assert.Zero(t, resp.Width)
	assert.Zero(t, resp.Height)

	stored, err := os.ReadFile(filepath.Join(dir, resp.ID+".webm"))
	require.NoError(t, err)
	assert.Equal(t, payload, stored, "video bytes are not transcoded")
}

func TestHandler_UploadRejectsUnsupportedTypes(t *testing.T) {
	h := NewHandler(t.TempDir())

	req := multipartUpload(t, "notes.txt", "text/plain", []byte("hello"))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A PNG content type with garbage bytes fails decoding.
	req = multipartUpload(t, "fake.png", "image/png", []byte("not a png"))
	rec = httptest.NewRecorder()
	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ServeSetsImmutableCaching(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)

	req := multipartUpload(t, "pic.png", "image/png", encodePNG(t, 4, 4))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	getReq := httptest.NewRequest(http.MethodGet, resp.URL, nil)
	getRec := httptest.NewRecorder()
	h.Serve().ServeHTTP(getRec, getReq)

	assert.Equal(t, http.StatusOK, getRec.Code)
	assert.Contains(t, getRec.Header().Get("Cache-Control"), "immutable")
}

func TestHandler_Delete(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)

	req := multipartUpload(t, "pic.png", "image/png", encodePNG(t, 4, 4))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NoError(t, h.Delete(resp.ID))
	_, err := os.Stat(filepath.Join(dir, resp.ID+".png"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, h.Delete("asset_missing"))
}
