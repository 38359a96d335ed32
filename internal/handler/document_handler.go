package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
	"github.com/clearhub-ng/clearance-api/pkg/response"
	"github.com/clearhub-ng/clearance-api/pkg/storage"
)

var allowedDocumentExtensions = map[string]struct{}{
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// DocumentHandler stores uploaded clearance documents and serves them back
// through signed, expiring links. Students upload first, then reference the
// returned URL in their submission payload.
type DocumentHandler struct {
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	maxMB  int64
}

// NewDocumentHandler creates a new handler.
func NewDocumentHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner, maxMB int64) *DocumentHandler {
	if maxMB <= 0 {
		maxMB = 10
	}
	return &DocumentHandler{store: store, signer: signer, maxMB: maxMB}
}

// Upload godoc
// @Summary Upload a clearance document
// @Description Store a document and return the signed URL to reference in a submission
// @Tags Clearance
// @Accept mpfd
// @Produce json
// @Param file formData file true "Document file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /clearance/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a file upload is required"))
		return
	}
	if fileHeader.Size > h.maxMB<<20 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %dMB limit", h.maxMB)))
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := allowedDocumentExtensions[ext]; !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "only pdf, png, and jpeg documents are accepted"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	relPath := filepath.Join(actor.UserID(), uuid.New().String()+ext)
	if _, err := h.store.SaveStream(relPath, src); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document"))
		return
	}

	token, expiresAt, err := h.signer.Generate(actor.UserID(), relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign document link"))
		return
	}

	response.Created(c, gin.H{
		"file_name":  fileHeader.Filename,
		"file_url":   fmt.Sprintf("%s/%s", c.Request.URL.Path, token),
		"file_type":  fileHeader.Header.Get("Content-Type"),
		"expires_at": expiresAt,
	})
}

// Download godoc
// @Summary Download a clearance document
// @Description Serve a stored document referenced by a signed token
// @Tags Clearance
// @Produce octet-stream
// @Param token path string true "Signed document token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /clearance/documents/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired document link"))
		return
	}

	file, err := h.store.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "document not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(relPath)))
	c.File(file.Name())
}
