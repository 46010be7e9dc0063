package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
)

type stubCategoryRepo struct {
	categories []*models.Category
}

func (s *stubCategoryRepo) Create(_ context.Context, category *models.Category) (*models.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	s.categories = append(s.categories, category)
	return category, nil
}

func (s *stubCategoryRepo) Update(_ context.Context, category *models.Category) (*models.Category, error) {
	for i, existing := range s.categories {
		if existing.ID == category.ID {
			s.categories[i] = category
			return category, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, existing := range s.categories {
		if existing.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	for _, existing := range s.categories {
		if existing.ID == id {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryRepo) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, existing := range s.categories {
		if existing.Slug == slug {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryRepo) List(_ context.Context) ([]models.Category, error) {
	rows := make([]models.Category, 0, len(s.categories))
	for _, existing := range s.categories {
		rows = append(rows, *existing)
	}
	return rows, nil
}

func buildCategoryService(t *testing.T, repo *stubCategoryRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func assertCategoryErrCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	appErr, ok := pkgerrors.As(err)
	if !ok {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != want {
		t.Fatalf("expected code %s, got %s", want, appErr.Code())
	}
}

func TestCreateCategorySlugsVietnameseName(t *testing.T) {
	svc := buildCategoryService(t, &stubCategoryRepo{})

	dto, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Dữ liệu nghiên cứu"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Slug != "du-lieu-nghien-cuu" {
		t.Fatalf("unexpected slug %q", dto.Slug)
	}
}

func TestCreateCategoryRejectsDuplicateSlug(t *testing.T) {
	repo := &stubCategoryRepo{categories: []*models.Category{
		{ID: uuid.New(), Name: "Ebook", Slug: "ebook"},
	}}
	svc := buildCategoryService(t, repo)

	_, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Ebook"})
	assertCategoryErrCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdateCategoryReslugsOnRename(t *testing.T) {
	existing := &models.Category{ID: uuid.New(), Name: "Cũ", Slug: "cu"}
	svc := buildCategoryService(t, &stubCategoryRepo{categories: []*models.Category{existing}})

	name := "Tài liệu mới"
	dto, err := svc.Update(context.Background(), existing.ID, UpdateCategoryInput{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if dto.Slug != "tai-lieu-moi" {
		t.Fatalf("unexpected slug %q", dto.Slug)
	}
}

func TestDeleteCategoryUnknownIDReturnsNotFound(t *testing.T) {
	svc := buildCategoryService(t, &stubCategoryRepo{})

	err := svc.Delete(context.Background(), uuid.New())
	assertCategoryErrCode(t, err, pkgerrors.CodeNotFound)
}
