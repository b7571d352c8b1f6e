package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

// Presigner issues direct-to-storage upload URLs.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, time.Time, error)
	PublicURL(key string) string
}

// PresignInput describes the file a client is about to upload.
type PresignInput struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,oneof=image/jpeg image/png image/gif image/webp"`
	Purpose     string `json:"purpose" validate:"omitempty,oneof=post avatar cover"`
}

// PresignedUpload is where and until when a client may PUT its file.
type PresignedUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadService hands out presigned image upload URLs.
type UploadService struct {
	presigner Presigner
	validator *validation.Validator
	log       *zap.Logger
}

// NewUploadService creates a new upload service. presigner may be nil when
// object storage is not configured.
func NewUploadService(p Presigner, v *validation.Validator, log *zap.Logger) *UploadService {
	return &UploadService{presigner: p, validator: v, log: log.Named("uploads")}
}

// PresignImage returns a presigned PUT URL for an image owned by userID.
func (s *UploadService) PresignImage(ctx context.Context, userID uuid.UUID, in PresignInput) (*PresignedUpload, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if s.presigner == nil {
		return nil, apperrors.ServerConfig("object storage is not configured")
	}

	purpose := in.Purpose
	if purpose == "" {
		purpose = "post"
	}
	key, err := objectKey(purpose+"s/"+userID.String(), in.Filename)
	if err != nil {
		return nil, err
	}

	uploadURL, expiresAt, err := s.presigner.PresignPut(ctx, key, in.ContentType)
	if err != nil {
		return nil, apperrors.Internal("failed to presign upload", err)
	}

	s.log.Debug("upload presigned", zap.String("key", key), zap.Stringer("user_id", userID))
	return &PresignedUpload{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: s.presigner.PublicURL(key),
		ExpiresAt: expiresAt,
	}, nil
}
