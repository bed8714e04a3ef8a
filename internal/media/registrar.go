package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("avatar must be a JPEG, PNG, WebP or GIF image")
	ErrTooLarge        = errors.New("avatar file is too large")
)

const avatarFolder = "avatars"

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	UploadedBy  *uuid.UUID
}

// Recorder persists media rows. GormStore satisfies it.
type Recorder interface {
	CreateMedia(ctx context.Context, media *models.Media) error
	DeleteMedia(ctx context.Context, id uuid.UUID) error
}

type Registrar struct {
	storage  Storage
	records  Recorder
	maxBytes int64
}

func NewRegistrar(storage Storage, records Recorder, maxBytes int64) *Registrar {
	return &Registrar{storage: storage, records: records, maxBytes: maxBytes}
}

// RegisterAvatar stores an image and records it. The content type is taken
// from the file's leading bytes; the declared type must agree.
func (r *Registrar) RegisterAvatar(ctx context.Context, up Upload) (*models.Media, error) {
	if up.Size > r.maxBytes {
		return nil, ErrTooLarge
	}
	if _, ok := avatarExtensions[up.ContentType]; !ok {
		return nil, ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, ErrTooLarge
	}

	sniffed := http.DetectContentType(data)
	ext, ok := avatarExtensions[sniffed]
	if !ok || sniffed != up.ContentType {
		return nil, ErrUnsupportedType
	}

	id := uuid.New()
	key := avatarKey(id, ext)

	url, err := r.storage.Put(ctx, key, sniffed, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	folder := avatarFolder
	m := &models.Media{
		ID:         id,
		Filename:   up.Filename,
		URL:        url,
		Folder:     &folder,
		MimeType:   sniffed,
		SizeBytes:  int64(len(data)),
		UploadedBy: up.UploadedBy,
	}
	if err := r.records.CreateMedia(ctx, m); err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to remove orphaned upload", "key", key, "error", delErr)
		}
		return nil, err
	}
	return m, nil
}

// DiscardAvatar undoes RegisterAvatar: the stored object and the media row
// are both removed.
func (r *Registrar) DiscardAvatar(ctx context.Context, m *models.Media) error {
	ext, ok := avatarExtensions[m.MimeType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, m.MimeType)
	}
	return errors.Join(
		r.storage.Delete(ctx, avatarKey(m.ID, ext)),
		r.records.DeleteMedia(ctx, m.ID),
	)
}

func avatarKey(id uuid.UUID, ext string) string {
	return avatarFolder + "/" + id.String() + ext
}
