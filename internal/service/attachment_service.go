package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

var allowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// AttachmentService stores complaint photo evidence in object storage and
// tracks references in Postgres. Access checks happen upstream where the
// complaint itself is resolved.
type AttachmentService struct {
	store       *persistence.ObjectStore
	attachments repository.AttachmentRepository
	maxBytes    int64
	logger      *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(store *persistence.ObjectStore, attachments repository.AttachmentRepository, cfg config.MinioConfig, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		store:       store,
		attachments: attachments,
		maxBytes:    cfg.MaxUploadBytes,
		logger:      logger,
	}
}

// Upload streams one file into the bucket and records its reference.
func (s *AttachmentService) Upload(ctx context.Context, complaint *domain.Complaint, fileName, contentType string, size int64, reader io.Reader) (*domain.AttachmentReference, error) {
	if complaint == nil {
		return nil, errors.New("complaint required")
	}
	if size <= 0 {
		return nil, apperrors.NewValidationError("empty upload", nil)
	}
	if size > s.maxBytes {
		return nil, apperrors.NewValidationError("file too large", map[string]any{
			"size_bytes": size,
			"max_bytes":  s.maxBytes,
		})
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !allowedAttachmentTypes[contentType] {
		return nil, apperrors.NewValidationError("unsupported file type", map[string]any{"content_type": contentType})
	}

	fileName = sanitizeFileName(fileName)
	key := fmt.Sprintf("complaints/%s/%s-%s", complaint.ID, uuid.NewString(), fileName)
	if err := s.store.Put(ctx, key, reader, size, contentType); err != nil {
		return nil, err
	}

	attachment := &domain.AttachmentReference{
		ComplaintID: complaint.ID,
		StorageKey:  key,
		FileName:    fileName,
		MimeType:    contentType,
		SizeBytes:   size,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		// orphaned object; remove it so the bucket stays consistent
		if removeErr := s.store.Remove(ctx, key); removeErr != nil {
			s.logger.Warn("orphaned attachment object", zap.String("key", key), zap.Error(removeErr))
		}
		return nil, err
	}
	return attachment, nil
}

// List returns the references recorded for a complaint.
func (s *AttachmentService) List(ctx context.Context, complaintID string) ([]domain.AttachmentReference, error) {
	return s.attachments.ListByComplaint(ctx, complaintID)
}

// PresignDownload returns a short-lived URL for one attachment. The
// attachment must belong to the given complaint.
func (s *AttachmentService) PresignDownload(ctx context.Context, complaintID, attachmentID string) (string, *domain.AttachmentReference, error) {
	attachment, err := s.getForComplaint(ctx, complaintID, attachmentID)
	if err != nil {
		return "", nil, err
	}
	signed, err := s.store.PresignedGet(ctx, attachment.StorageKey, attachment.FileName)
	if err != nil {
		return "", nil, err
	}
	return signed.String(), attachment, nil
}

// Open streams the raw object, for deployments without a public object
// storage endpoint.
func (s *AttachmentService) Open(ctx context.Context, complaintID, attachmentID string) (io.ReadCloser, *domain.AttachmentReference, error) {
	attachment, err := s.getForComplaint(ctx, complaintID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.store.Get(ctx, attachment.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return reader, attachment, nil
}

// Delete removes the object and its reference.
func (s *AttachmentService) Delete(ctx context.Context, complaintID, attachmentID string) error {
	attachment, err := s.getForComplaint(ctx, complaintID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, attachment.StorageKey); err != nil {
		return err
	}
	return s.attachments.Delete(ctx, attachment.ID)
}

// RemoveObjects clears stored objects whose reference rows are already gone,
// which happens when the owning complaint row cascades away. Best effort;
// failures only leave unreferenced objects behind.
func (s *AttachmentService) RemoveObjects(ctx context.Context, attachments []domain.AttachmentReference) {
	for _, attachment := range attachments {
		if err := s.store.Remove(ctx, attachment.StorageKey); err != nil {
			s.logger.Warn("attachment object not removed", zap.String("key", attachment.StorageKey), zap.Error(err))
		}
	}
}

func (s *AttachmentService) getForComplaint(ctx context.Context, complaintID, attachmentID string) (*domain.AttachmentReference, error) {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return nil, err
	}
	if attachment.ComplaintID != complaintID {
		return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
	}
	return attachment, nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
