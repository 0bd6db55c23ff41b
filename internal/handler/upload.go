package handler

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	_ "golang.org/x/image/tiff"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/auth"
)

// maxUploadBytes bounds cover art uploads. 5 MiB is generous for a box shot.
const maxUploadBytes = 5 << 20

// allowedImageTypes maps sniffed MIME types to the formats the image decoder
// is registered for. WebP and friends are rejected even if the browser
// labels them image/*.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/tiff": true,
}

// UploadHandler stores cover images for inventory rows.
type UploadHandler struct {
	dir    string
	logger *slog.Logger
}

// NewUploadHandler creates the upload directory if it is missing.
func NewUploadHandler(dir string, logger *slog.Logger) (*UploadHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &UploadHandler{dir: dir, logger: logger}, nil
}

// HandleUpload accepts a multipart image under the "file" field and stores
// it with an unguessable name. The content is verified twice: the magic
// bytes must sniff as an allowed image type, and the payload must actually
// decode as one. The client-supplied Content-Type and extension are never
// trusted.
//
// HTTP: POST /api/upload (RequireAuth + RequireAdmin)
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFromContext(r.Context()); !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "a file upload named 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "upload exceeds the 5 MiB limit"))
		return
	}

	sniffed := http.DetectContentType(data)
	if !allowedImageTypes[sniffed] {
		writeError(w, apperror.ValidationFailed("file", "only JPEG, PNG and TIFF images are accepted"))
		return
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		writeError(w, apperror.ValidationFailed("file", "file is not a valid image"))
		return
	}

	name := xid.New().String() + "-" + sanitizeFilename(header.Filename)
	dst := filepath.Join(h.dir, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		h.logger.Error("writing upload", slog.String("path", dst), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	h.logger.Info("image uploaded",
		slog.String("file", name),
		slog.Int("bytes", len(data)),
		slog.String("type", sniffed),
	)
	writeJSON(w, http.StatusOK, map[string]string{"url": "/uploads/" + name})
}

// sanitizeFilename reduces a client filename to a safe suffix: base name
// only, lowercased, with anything outside [a-z0-9._-] replaced.
func sanitizeFilename(name string) string {
	base := strings.ToLower(filepath.Base(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
