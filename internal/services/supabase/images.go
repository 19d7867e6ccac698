package supabase

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/DanielBelovol/ThumbnailTester/internal/config"
	"github.com/DanielBelovol/ThumbnailTester/internal/logger"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
)

// ImageStore keeps candidate thumbnail images in a Supabase storage bucket
// between test creation and thumbnail upload. References handed to the
// orchestrator are object paths within the bucket.
type ImageStore struct {
	client *storage_go.Client
	bucket string
	log    *logger.Logger
}

func NewImageStore(cfg *config.Config, log *logger.Logger) *ImageStore {
	client := storage_go.NewClient(cfg.SupabaseURL+"/storage/v1", cfg.SupabaseServiceKey, nil)
	return &ImageStore{
		client: client,
		bucket: cfg.SupabaseBucket,
		log:    log,
	}
}

// Put stores image bytes under a fresh object path and returns the reference.
func (s *ImageStore) Put(ctx context.Context, sessionID string, position int, image []byte) (string, error) {
	ref := path.Join(sessionID, fmt.Sprintf("variant-%d-%s.jpg", position, uuid.NewString()[:8]))

	contentType := "image/jpeg"
	_, err := s.client.UploadFile(s.bucket, ref, bytes.NewReader(image), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	s.log.Debug("Stored image %s (%d bytes)", ref, len(image))
	return ref, nil
}

// Fetch resolves a reference back to image bytes.
func (s *ImageStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to download image %s: %w", ref, err)
	}
	return data, nil
}

// Remove deletes the transient copy once the thumbnail is live on the
// platform.
func (s *ImageStore) Remove(ctx context.Context, ref string) error {
	if _, err := s.client.RemoveFile(s.bucket, []string{ref}); err != nil {
		return fmt.Errorf("failed to remove image %s: %w", ref, err)
	}
	return nil
}
