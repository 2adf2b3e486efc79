package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/storage"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZIP  = "application/zip"
)

type attachmentStorage interface {
	SaveStream(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type attachmentSigner interface {
	Sign(subject, path string) (string, storage.Grant, error)
	Verify(token string) (storage.Grant, error)
}

// AttachmentUpload carries an uploaded resume stream.
type AttachmentUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// AttachmentDownload bundles an opened file for streaming.
type AttachmentDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
	ExpiresAt time.Time
}

// AttachmentServiceConfig holds validation parameters.
type AttachmentServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// AttachmentService stores student resumes and issues signed download URLs.
type AttachmentService struct {
	storage attachmentStorage
	signer  attachmentSigner
	logger  *zap.Logger
	cfg     AttachmentServiceConfig
	mimeSet map[string]struct{}
	now     func() time.Time
}

// NewAttachmentService constructs the service with defaults.
func NewAttachmentService(store attachmentStorage, signer attachmentSigner, logger *zap.Logger, cfg AttachmentServiceConfig) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{mimePDF, mimeDOCX}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &AttachmentService{storage: store, signer: signer, logger: logger, cfg: cfg, mimeSet: mimeSet, now: time.Now}
}

// UploadResume stores the calling student's resume and returns the
// attachment tuple to submit with an application.
func (s *AttachmentService) UploadResume(ctx context.Context, actor *models.JWTClaims, upload AttachmentUpload) (*dto.AttachmentUploadResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	mimeType, err := detectMime(upload.Content, upload.Filename)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[mimeType]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type not allowed")
	}

	name := s.generateFilename(actor.UserID, upload.Filename, mimeType)
	written, err := s.storage.SaveStream(name, io.LimitReader(upload.Content, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	if written > s.cfg.MaxFileSize {
		_ = s.storage.Delete(name)
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	token, grant, err := s.signer.Sign(actor.UserID, name)
	if err != nil {
		_ = s.storage.Delete(name)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	s.logger.Info("resume uploaded", zap.String("student_id", actor.UserID), zap.String("path", name), zap.Int64("size", written))

	original := filepath.Base(strings.TrimSpace(upload.Filename))
	if original == "." || original == "" {
		original = filepath.Base(name)
	}
	return &dto.AttachmentUploadResponse{
		Attachment: models.Attachment{
			FileName:   original,
			FileURL:    fmt.Sprintf("%s/attachments/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
			FileType:   mimeType,
			UploadedAt: s.now().UTC(),
		},
		Size:      written,
		ExpiresAt: grant.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Download validates token and opens the referenced file.
func (s *AttachmentService) Download(ctx context.Context, token string) (*AttachmentDownload, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.storage.Open(grant.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read file metadata")
	}
	return &AttachmentDownload{
		File:      file,
		Filename:  filepath.Base(grant.Path),
		MimeType:  mimeFromExtension(grant.Path),
		SizeBytes: info.Size(),
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// detectMime sniffs the first 512 bytes. DOCX files sniff as ZIP archives and
// are told apart by extension.
func detectMime(content io.ReadSeeker, filename string) (string, error) {
	header := make([]byte, 512)
	n, err := content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	detected := http.DetectContentType(header[:n])
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	if detected == mimeZIP && strings.EqualFold(filepath.Ext(filename), ".docx") {
		return mimeDOCX, nil
	}
	return strings.ToLower(detected), nil
}

func (s *AttachmentService) generateFilename(studentID, original, mimeType string) string {
	ext := mimeExtension(mimeType)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(original))
	}
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("resumes/%s/resume_%d_%s%s", sanitize(studentID), s.now().Unix(), randomSuffix(), ext)
}

func sanitize(raw string) string {
	raw = strings.ToLower(raw)
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func mimeExtension(mime string) string {
	switch strings.ToLower(mime) {
	case mimePDF:
		return ".pdf"
	case mimeDOCX:
		return ".docx"
	default:
		return ""
	}
}

func mimeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	default:
		return "application/octet-stream"
	}
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
