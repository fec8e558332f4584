package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/service"
)

const (
	uploadField = "image"
	// multipart boundaries and part headers on top of the file itself
	multipartOverhead = 1 << 20
	// parts beyond this are spooled to temp files by ParseMultipartForm
	multipartMemory = 8 << 20
)

type UploadHandler struct {
	base
	uploads  *service.UploadService
	maxBytes int64
}

func NewUploadHandler(uploads *service.UploadService, maxBytes int64, opts Options) *UploadHandler {
	return &UploadHandler{base: newBase(opts), uploads: uploads, maxBytes: maxBytes}
}

type uploadResponse struct {
	Success bool         `json:"success"`
	Image   *model.Image `json:"image,omitempty"`
	Message string       `json:"message"`
}

// HandleUpload stores one image from the multipart field "image".
//
// HTTP: POST /api/upload
//
// The declared part type must be image/*, and so must the type sniffed from
// the first bytes; a renamed text file is rejected either way.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.fail(w, r, h.formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.fail(w, r, h.formError(err))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		h.fail(w, r, apperror.PayloadTooLarge(tooLargeMessage(h.maxBytes)))
		return
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		h.fail(w, r, apperror.ValidationFailed(uploadField, "only image files are allowed"))
		return
	}

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		h.fail(w, r, apperror.ValidationFailed(uploadField, "could not read uploaded file"))
		return
	}
	if !strings.HasPrefix(detected.String(), "image/") {
		h.fail(w, r, apperror.ValidationFailed(uploadField, "only image files are allowed"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.fail(w, r, err)
		return
	}

	img, err := h.uploads.Upload(r.Context(), header.Filename, detected.String(), file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Image:   img,
		Message: "Image uploaded successfully",
	})
}

// HandleDelete removes an uploaded image and its blob.
//
// HTTP: DELETE /api/upload/{id}
func (h *UploadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.uploads.Delete(r.Context(), pathParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Message: "Image deleted successfully"})
}

func (h *UploadHandler) formError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return apperror.PayloadTooLarge(tooLargeMessage(h.maxBytes))
	case errors.Is(err, http.ErrMissingFile):
		return apperror.ValidationFailed(uploadField, "no image file provided")
	default:
		return apperror.ValidationFailed(uploadField, "request must be multipart/form-data with an image field")
	}
}

func tooLargeMessage(limit int64) string {
	return "image must be at most " + humanize.IBytes(uint64(limit))
}
