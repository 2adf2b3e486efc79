package dto

import "github.com/noah-isme/placement-api/internal/models"

// AttachmentUploadResponse returns the stored tuple with its download URL.
type AttachmentUploadResponse struct {
	models.Attachment
	Size      int64  `json:"size"`
	ExpiresAt string `json:"expiresAt"`
}
