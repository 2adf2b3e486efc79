package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/pkg/storage"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type expiredSigner struct{}

func (expiredSigner) Sign(subject, path string) (string, storage.Grant, error) {
	return "tok", storage.Grant{Subject: subject, Path: path}, nil
}

func (expiredSigner) Verify(token string) (storage.Grant, error) {
	return storage.Grant{}, storage.ErrTokenExpired
}

func newAttachmentFixture(t *testing.T, maxSize int64) (*AttachmentService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewAttachmentService(store, storage.NewSignedURLSigner("attachment-secret", time.Hour), zap.NewNop(), AttachmentServiceConfig{MaxFileSize: maxSize, APIPrefix: "/api/v1/"})
	svc.now = fixedClock
	return svc, store
}

func TestAttachmentServiceUploadAndDownload(t *testing.T) {
	svc, _ := newAttachmentFixture(t, 1024)
	ctx := context.Background()

	resp, err := svc.UploadResume(ctx, studentClaims("stu-1"), AttachmentUpload{
		Filename: "Asha Resume.pdf",
		Size:     int64(len(samplePDF)),
		Content:  bytes.NewReader(samplePDF),
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha Resume.pdf", resp.FileName)
	assert.Equal(t, mimePDF, resp.FileType)
	assert.Equal(t, fixedNow, resp.UploadedAt)
	assert.EqualValues(t, len(samplePDF), resp.Size)
	require.True(t, strings.HasPrefix(resp.FileURL, "/api/v1/attachments/"))

	token := strings.TrimPrefix(resp.FileURL, "/api/v1/attachments/")
	download, err := svc.Download(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, mimePDF, download.MimeType)
	assert.True(t, strings.HasPrefix(download.Filename, "resume_"))
	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, content)
}

func TestAttachmentServiceUploadRejects(t *testing.T) {
	svc, _ := newAttachmentFixture(t, 64)
	ctx := context.Background()

	_, err := svc.UploadResume(ctx, operatorClaims(), AttachmentUpload{Filename: "a.pdf", Size: 10, Content: bytes.NewReader(samplePDF)})
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = svc.UploadResume(ctx, studentClaims("stu-1"), AttachmentUpload{Filename: "a.pdf", Size: 65, Content: bytes.NewReader(samplePDF)})
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, errorCode(err))

	// Declared size lies; the stored stream is capped anyway.
	_, err = svc.UploadResume(ctx, studentClaims("stu-1"), AttachmentUpload{Filename: "a.pdf", Size: 10, Content: bytes.NewReader(samplePDF)})
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, errorCode(err))

	text := []byte("plain text resume")
	_, err = svc.UploadResume(ctx, studentClaims("stu-1"), AttachmentUpload{Filename: "a.txt", Size: int64(len(text)), Content: bytes.NewReader(text)})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = svc.UploadResume(ctx, studentClaims("stu-1"), AttachmentUpload{Filename: "a.pdf"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestAttachmentServiceDownloadRejects(t *testing.T) {
	svc, store := newAttachmentFixture(t, 1024)
	ctx := context.Background()

	_, err := svc.Download(ctx, "garbage")
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	signer := storage.NewSignedURLSigner("attachment-secret", time.Hour)
	token, _, err := signer.Sign("stu-1", "resumes/stu-1/missing.pdf")
	require.NoError(t, err)
	_, err = svc.Download(ctx, token)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))

	expired := NewAttachmentService(store, expiredSigner{}, zap.NewNop(), AttachmentServiceConfig{})
	_, err = expired.Download(ctx, "tok")
	require.Error(t, err)
	assert.Equal(t, "download link expired", appErrors.FromError(err).Message)
}

func TestDetectMimeRecognisesDocx(t *testing.T) {
	zipHeader := append([]byte("PK\x03\x04"), make([]byte, 60)...)
	mt, err := detectMime(bytes.NewReader(zipHeader), "resume.DOCX")
	require.NoError(t, err)
	assert.Equal(t, mimeDOCX, mt)

	mt, err = detectMime(bytes.NewReader(zipHeader), "resume.zip")
	require.NoError(t, err)
	assert.Equal(t, mimeZIP, mt)
}
