package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/logbook/logbook-service/internal/core/ports"
)

// BlobReader is implemented by blob stores that keep their bytes in process.
type BlobReader interface {
	Get(ref string) (ports.BlobObject, bool)
}

// BlobHandler handles GET /blobs/:ref for the in-memory blob backend.
// Only live blobs are served; trashed ones are 404.
type BlobHandler struct {
	blobs BlobReader
}

func NewBlobHandler(blobs BlobReader) *BlobHandler {
	return &BlobHandler{blobs: blobs}
}

func (h *BlobHandler) Serve(c echo.Context) error {
	obj, ok := h.blobs.Get(c.Param("ref"))
	if !ok {
		return echo.ErrNotFound
	}
	mimeType := obj.MimeType
	if mimeType == "" {
		mimeType = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, mimeType, obj.Data)
}
