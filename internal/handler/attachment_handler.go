package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/service"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/response"
)

type attachmentService interface {
	UploadResume(ctx context.Context, actor *models.JWTClaims, upload service.AttachmentUpload) (*dto.AttachmentUploadResponse, error)
	Download(ctx context.Context, token string) (*service.AttachmentDownload, error)
}

// AttachmentHandler stores resumes and serves signed downloads.
type AttachmentHandler struct {
	attachments attachmentService
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(attachments attachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// UploadResume godoc
// @Summary Upload a resume
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF or DOCX resume"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /attachments/resume [post]
func (h *AttachmentHandler) UploadResume(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}
	uploaded, err := h.attachments.UploadResume(c.Request.Context(), claims, service.AttachmentUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  reader,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, uploaded)
}

// Download godoc
// @Summary Download an attachment via signed token
// @Tags Attachments
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /attachments/{token} [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.attachments.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}
