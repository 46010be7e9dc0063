package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// Service exposes the public contact form and the admin inbox.
type Service interface {
	Create(ctx context.Context, input CreateMessageInput) (*MessageDTO, error)
	List(ctx context.Context, input ListInput) (*ListOutput, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*MessageDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository interface {
	Create(ctx context.Context, message *models.Message) (*models.Message, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	List(ctx context.Context, unreadOnly bool, cursor *pagination.Cursor, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo repository
}

// NewService constructs a message service backed by the provided repository.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("message repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateMessageInput) (*MessageDTO, error) {
	name := strings.TrimSpace(input.Name)
	content := strings.TrimSpace(input.Content)
	if name == "" || content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and content are required")
	}

	created, err := s.repo.Create(ctx, &models.Message{
		Name:    name,
		Email:   strings.ToLower(strings.TrimSpace(input.Email)),
		Content: content,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create message")
	}
	return FromModel(created), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	rows, err := s.repo.List(ctx, input.UnreadOnly, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
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

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) (*MessageDTO, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark message read")
	}
	message, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(message), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete message")
	}
	return nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	message, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup message")
	}
	return message, nil
}
