package attachment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go-approvals/internal/common/apperrors"
	"go-approvals/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttachmentService is the blob store contract: Store hands back an
// opaque ref, Resolve returns the bytes behind one.
type AttachmentService interface {
	Store(ctx context.Context, filename, mimeType, kind string, data []byte, uploadedBy primitive.ObjectID) (*Attachment, error)
	Resolve(ctx context.Context, ref string) (*Attachment, []byte, error)
	GetMeta(ctx context.Context, ref string) (*Attachment, error)
	Delete(ctx context.Context, ref string, userID primitive.ObjectID) error
}

type AttachmentServiceImpl struct {
	Repo AttachmentRepository
	Cfg  *config.Config
}

func NewAttachmentService(repo AttachmentRepository, cfg *config.Config) AttachmentService {
	return &AttachmentServiceImpl{
		Repo: repo,
		Cfg:  cfg,
	}
}

func (s *AttachmentServiceImpl) Store(ctx context.Context, filename, mimeType, kind string, data []byte, uploadedBy primitive.ObjectID) (*Attachment, error) {
	ref := primitive.NewObjectID().Hex()

	if err := os.MkdirAll(s.Cfg.FSPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.Cfg.FSPath, ref)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write attachment: %w", err)
	}

	att := &Attachment{
		Ref:              ref,
		OriginalFilename: filename,
		URL:              fmt.Sprintf("%s/%s", s.Cfg.FSURL, ref),
		Path:             path,
		Size:             int64(len(data)),
		MimeType:         mimeType,
		Kind:             kind,
		UploadedBy:       uploadedBy,
	}

	if err := s.Repo.Save(ctx, att); err != nil {
		os.Remove(path)
		return nil, err
	}
	return att, nil
}

func (s *AttachmentServiceImpl) Resolve(ctx context.Context, ref string) (*Attachment, []byte, error) {
	att, err := s.GetMeta(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(att.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read attachment %s: %w", ref, err)
	}
	return att, data, nil
}

func (s *AttachmentServiceImpl) GetMeta(ctx context.Context, ref string) (*Attachment, error) {
	att, err := s.Repo.FindByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, &apperrors.NotFoundError{Resource: "attachment", ID: ref}
	}
	return att, nil
}

func (s *AttachmentServiceImpl) Delete(ctx context.Context, ref string, userID primitive.ObjectID) error {
	att, err := s.GetMeta(ctx, ref)
	if err != nil {
		return err
	}

	if att.UploadedBy != userID {
		return fmt.Errorf("unauthorized: you can only delete your own attachments")
	}

	if err := os.Remove(att.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete attachment from disk: %w", err)
	}

	return s.Repo.Delete(ctx, ref)
}
