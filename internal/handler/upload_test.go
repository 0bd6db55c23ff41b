package handler_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gamestock/internal/handler"
	"github.com/sakif/gamestock/internal/model"
)

// multipartBody builds a multipart form with one file field.
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

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadHandler(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser(t, "admin", "secret", model.RoleAdmin)

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	h, err := handler.NewUploadHandler(dir, logger)
	require.NoError(t, err)

	t.Run("stores a valid PNG", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", "Cover Art.PNG", pngBytes(t))
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/upload", body), admin)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		h.HandleUpload(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var res struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		require.True(t, strings.HasPrefix(res.URL, "/uploads/"), "url = %q", res.URL)

		name := strings.TrimPrefix(res.URL, "/uploads/")
		assert.True(t, strings.HasSuffix(name, "-cover_art.png"), "filename = %q", name)

		written, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, pngBytes(t), written)
	})

	t.Run("two uploads of the same file get distinct names", func(t *testing.T) {
		upload := func() string {
			body, contentType := multipartBody(t, "file", "same.png", pngBytes(t))
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/upload", body), admin)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			h.HandleUpload(rr, req)
			require.Equal(t, http.StatusOK, rr.Code)
			var res struct {
				URL string `json:"url"`
			}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
			return res.URL
		}
		assert.NotEqual(t, upload(), upload())
	})

	t.Run("rejects a file that is not an image", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", "evil.png", []byte("#!/bin/sh\nrm -rf /\n"))
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/upload", body), admin)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		h.HandleUpload(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a truncated PNG that sniffs as an image", func(t *testing.T) {
		// Valid magic bytes, invalid image data: the decode step must catch it.
		broken := append([]byte{}, pngBytes(t)[:12]...)
		body, contentType := multipartBody(t, "file", "broken.png", broken)
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/upload", body), admin)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		h.HandleUpload(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("wrong field name", func(t *testing.T) {
		body, contentType := multipartBody(t, "image", "cover.png", pngBytes(t))
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/upload", body), admin)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		h.HandleUpload(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("anonymous gets 401", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", "cover.png", pngBytes(t))
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		h.HandleUpload(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
