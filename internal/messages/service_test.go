package messages

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

type stubMessageRepo struct {
	messages []*models.Message
}

func (s *stubMessageRepo) Create(_ context.Context, message *models.Message) (*models.Message, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	s.messages = append(s.messages, message)
	return message, nil
}

func (s *stubMessageRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Message, error) {
	for _, existing := range s.messages {
		if existing.ID == id {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMessageRepo) List(_ context.Context, unreadOnly bool, _ *pagination.Cursor, limit int) ([]models.Message, error) {
	var rows []models.Message
	for _, existing := range s.messages {
		if unreadOnly && existing.IsRead {
			continue
		}
		rows = append(rows, *existing)
		if len(rows) == limit {
			break
		}
	}
	return rows, nil
}

func (s *stubMessageRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	for _, existing := range s.messages {
		if existing.ID == id {
			existing.IsRead = true
		}
	}
	return nil
}

func (s *stubMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, existing := range s.messages {
		if existing.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return nil
}

func buildMessageService(t *testing.T, repo *stubMessageRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateMessageNormalizesEmail(t *testing.T) {
	repo := &stubMessageRepo{}
	svc := buildMessageService(t, repo)

	dto, err := svc.Create(context.Background(), CreateMessageInput{
		Name:    "Ngọc Dũng",
		Email:   "  Dung@Example.COM ",
		Content: "Cần tư vấn về dữ liệu khảo sát",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Email != "dung@example.com" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
	if dto.IsRead {
		t.Fatal("new messages must start unread")
	}
}

func TestCreateMessageRejectsBlankContent(t *testing.T) {
	svc := buildMessageService(t, &stubMessageRepo{})

	_, err := svc.Create(context.Background(), CreateMessageInput{
		Name:    "A",
		Email:   "a@example.com",
		Content: "   ",
	})
	appErr, ok := pkgerrors.As(err)
	if !ok || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkReadFlipsFlag(t *testing.T) {
	message := &models.Message{ID: uuid.New(), Name: "A", Email: "a@example.com", Content: "hi"}
	repo := &stubMessageRepo{messages: []*models.Message{message}}
	svc := buildMessageService(t, repo)

	dto, err := svc.MarkRead(context.Background(), message.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !dto.IsRead {
		t.Fatal("expected message marked read")
	}
}

func TestListUnreadOnlyFiltersReadMessages(t *testing.T) {
	read := &models.Message{ID: uuid.New(), Name: "A", Email: "a@example.com", Content: "x", IsRead: true}
	unread := &models.Message{ID: uuid.New(), Name: "B", Email: "b@example.com", Content: "y"}
	svc := buildMessageService(t, &stubMessageRepo{messages: []*models.Message{read, unread}})

	out, err := svc.List(context.Background(), ListInput{UnreadOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].ID != unread.ID {
		t.Fatalf("expected only the unread message, got %d items", len(out.Items))
	}
}

func TestDeleteUnknownMessageReturnsNotFound(t *testing.T) {
	svc := buildMessageService(t, &stubMessageRepo{})

	err := svc.Delete(context.Background(), uuid.New())
	appErr, ok := pkgerrors.As(err)
	if !ok || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
