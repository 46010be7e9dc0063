package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/config"
	"github.com/dungdata/dungdata-backend/pkg/db/models"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// Service exposes the admin media library operations.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*MediaDTO, error)
	List(ctx context.Context, params pagination.Params) (*ListOutput, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReleaseByURL(ctx context.Context, publicURL string) error
}

// ServiceParams wires the media service dependencies.
type ServiceParams struct {
	Repo      *Repository
	Storage   Storage
	Publisher Publisher
	Config    config.MediaConfig
}

// Storage is the bucket surface the media library needs.
type Storage interface {
	Upload(ctx context.Context, objectKey, contentType string, body io.Reader) error
	Delete(ctx context.Context, objectKey string) error
	PublicURL(objectKey string) string
}

// Publisher hands deletion requests to the background worker. A nil publisher
// makes deletes synchronous.
type Publisher interface {
	PublishDeletion(ctx context.Context, req DeletionRequest) error
}

type service struct {
	repo      *Repository
	storage   Storage
	publisher Publisher
	maxBytes  int64
}

// NewService constructs a media service from its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("media repository is required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("object storage is required")
	}
	maxBytes := int64(params.Config.MaxUploadMB) * 1024 * 1024
	return &service{
		repo:      params.Repo,
		storage:   params.Storage,
		publisher: params.Publisher,
		maxBytes:  maxBytes,
	}, nil
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*MediaDTO, error) {
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body is required")
	}
	if s.maxBytes > 0 && input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the upload size limit")
	}
	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.New()
	objectKey := buildObjectKey(time.Now().UTC(), input.FileName)

	if err := s.storage.Upload(ctx, objectKey, contentType, input.Body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload object")
	}

	created, err := s.repo.Create(ctx, &models.Media{
		ID:        id,
		ObjectKey: objectKey,
		PublicURL: s.storage.PublicURL(objectKey),
		MimeType:  contentType,
		SizeBytes: input.SizeBytes,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record upload")
	}
	return FromModel(created), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListOutput, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list media")
	}

	out := &ListOutput{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	out.Items = fromModels(rows)
	return out, nil
}

// Delete removes a media object. With a publisher configured the heavy work
// happens in the background worker; otherwise the bucket object and the row
// go synchronously.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup media")
	}

	if s.publisher != nil {
		err := s.publisher.PublishDeletion(ctx, DeletionRequest{
			MediaID:   row.ID,
			ObjectKey: row.ObjectKey,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue media deletion")
		}
		return nil
	}

	if err := s.storage.Delete(ctx, row.ObjectKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object")
	}
	if err := s.repo.Delete(ctx, row.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete media row")
	}
	return nil
}

// ReleaseByURL removes the object behind a public URL after its owning record
// stopped referencing it, typically a replaced post thumbnail. URLs the
// library does not know about are ignored.
func (s *service) ReleaseByURL(ctx context.Context, publicURL string) error {
	publicURL = strings.TrimSpace(publicURL)
	if publicURL == "" {
		return nil
	}

	row, err := s.repo.FindByPublicURL(ctx, publicURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup media by url")
	}

	if s.publisher != nil {
		err := s.publisher.PublishDeletion(ctx, DeletionRequest{
			MediaID:   row.ID,
			ObjectKey: row.ObjectKey,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue media deletion")
		}
		return nil
	}

	if err := s.storage.Delete(ctx, row.ObjectKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object")
	}
	if err := s.repo.Delete(ctx, row.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete media row")
	}
	return nil
}

// buildObjectKey prefixes the sanitized file name with the upload timestamp
// in milliseconds.
func buildObjectKey(now time.Time, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = "file"
	}
	return fmt.Sprintf("media/%d-%s", now.UnixMilli(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
