package posts

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/pkg/db/models"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/logger"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

type stubPostRepo struct {
	posts      []*models.Post
	viewCounts map[uuid.UUID]int
}

func newStubPostRepo(posts ...*models.Post) *stubPostRepo {
	return &stubPostRepo{posts: posts, viewCounts: map[uuid.UUID]int{}}
}

func (s *stubPostRepo) Create(_ context.Context, post *models.Post) (*models.Post, error) {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	s.posts = append(s.posts, post)
	return post, nil
}

func (s *stubPostRepo) Update(_ context.Context, post *models.Post) (*models.Post, error) {
	for i, existing := range s.posts {
		if existing.ID == post.ID {
			s.posts[i] = post
			return post, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPostRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, existing := range s.posts {
		if existing.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *stubPostRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	for _, existing := range s.posts {
		if existing.ID == id {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPostRepo) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	for _, existing := range s.posts {
		if existing.Slug == slug {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPostRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	s.viewCounts[id]++
	return nil
}

func (s *stubPostRepo) List(_ context.Context, input ListInput, _ *pagination.Cursor, limit int) ([]models.Post, error) {
	var rows []models.Post
	for _, existing := range s.posts {
		if !input.IncludeDrafts && !existing.Published {
			continue
		}
		if input.Filters.Category != "" && existing.Category != input.Filters.Category {
			continue
		}
		rows = append(rows, *existing)
		if len(rows) == limit {
			break
		}
	}
	return rows, nil
}

func buildPostService(t *testing.T, repo *stubPostRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func publishedPost(title, slug string) *models.Post {
	return &models.Post{
		ID:        uuid.New(),
		Title:     title,
		Slug:      slug,
		Category:  CategoryBlog,
		Published: true,
		CreatedAt: time.Now().UTC(),
	}
}

func assertPostErrCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	appErr, ok := pkgerrors.As(err)
	if !ok {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != want {
		t.Fatalf("expected code %s, got %s", want, appErr.Code())
	}
}

func TestCreateGeneratesSlugFromTitle(t *testing.T) {
	repo := newStubPostRepo()
	svc := buildPostService(t, repo)

	dto, err := svc.Create(context.Background(), CreatePostInput{
		Title:    "Dữ liệu khảo sát sinh viên",
		Category: CategoryData,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Slug != "du-lieu-khao-sat-sinh-vien" {
		t.Fatalf("unexpected slug %q", dto.Slug)
	}
	if dto.Published {
		t.Fatal("new posts should default to draft")
	}
}

func TestCreateSuffixesCollidingSlug(t *testing.T) {
	repo := newStubPostRepo(publishedPost("Phân tích SPSS", "phan-tich-spss"))
	svc := buildPostService(t, repo)

	dto, err := svc.Create(context.Background(), CreatePostInput{
		Title:    "Phân tích SPSS",
		Category: CategorySPSS,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Slug != "phan-tich-spss-2" {
		t.Fatalf("expected suffixed slug, got %q", dto.Slug)
	}
}

func TestCreateDropsSubcategoryOutsideDataCategory(t *testing.T) {
	repo := newStubPostRepo()
	svc := buildPostService(t, repo)
	sub := "SPSS"

	dto, err := svc.Create(context.Background(), CreatePostInput{
		Title:       "Ebook kinh tế lượng",
		Category:    CategoryEbook,
		Subcategory: &sub,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Subcategory != nil {
		t.Fatalf("expected subcategory dropped, got %q", *dto.Subcategory)
	}
}

func TestCreateKeepsSubcategoryForDataCategory(t *testing.T) {
	repo := newStubPostRepo()
	svc := buildPostService(t, repo)
	sub := "Stata"

	dto, err := svc.Create(context.Background(), CreatePostInput{
		Title:       "Dữ liệu doanh nghiệp",
		Category:    CategoryData,
		Subcategory: &sub,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Subcategory == nil || *dto.Subcategory != "Stata" {
		t.Fatal("expected subcategory retained for data posts")
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc := buildPostService(t, newStubPostRepo())

	_, err := svc.Create(context.Background(), CreatePostInput{
		Title:    "Bài viết",
		Category: "news",
	})
	assertPostErrCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc := buildPostService(t, newStubPostRepo())

	_, err := svc.Create(context.Background(), CreatePostInput{
		Title:    "Dữ liệu",
		Category: CategoryData,
		Price:    decimal.NewFromInt(-1000),
	})
	assertPostErrCode(t, err, pkgerrors.CodeValidation)
}

func TestGetBySlugCountsViewOnPublicReads(t *testing.T) {
	post := publishedPost("Bài viết", "bai-viet")
	repo := newStubPostRepo(post)
	svc := buildPostService(t, repo)

	dto, err := svc.GetBySlug(context.Background(), "bai-viet", true)
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if repo.viewCounts[post.ID] != 1 {
		t.Fatalf("expected one recorded view, got %d", repo.viewCounts[post.ID])
	}
	if dto.Views != post.Views+1 {
		t.Fatalf("expected returned views to include the new read, got %d", dto.Views)
	}
}

func TestGetBySlugHidesDraftsFromPublicReads(t *testing.T) {
	draft := publishedPost("Nháp", "nhap")
	draft.Published = false
	repo := newStubPostRepo(draft)
	svc := buildPostService(t, repo)

	_, err := svc.GetBySlug(context.Background(), "nhap", true)
	assertPostErrCode(t, err, pkgerrors.CodeNotFound)

	dto, err := svc.GetBySlug(context.Background(), "nhap", false)
	if err != nil {
		t.Fatalf("admin GetBySlug: %v", err)
	}
	if dto.Published {
		t.Fatal("expected draft post")
	}
	if repo.viewCounts[draft.ID] != 0 {
		t.Fatal("admin reads must not count views")
	}
}

func TestUpdateReslugsOnTitleChange(t *testing.T) {
	post := publishedPost("Tiêu đề cũ", "tieu-de-cu")
	repo := newStubPostRepo(post)
	svc := buildPostService(t, repo)

	title := "Tiêu đề mới"
	dto, err := svc.Update(context.Background(), post.ID, UpdatePostInput{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if dto.Slug != "tieu-de-moi" {
		t.Fatalf("expected regenerated slug, got %q", dto.Slug)
	}
}

func TestUpdateKeepsSlugWhenTitleUnchanged(t *testing.T) {
	post := publishedPost("Tiêu đề", "tieu-de-tuy-chinh")
	repo := newStubPostRepo(post)
	svc := buildPostService(t, repo)

	published := false
	dto, err := svc.Update(context.Background(), post.ID, UpdatePostInput{Published: &published})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if dto.Slug != "tieu-de-tuy-chinh" {
		t.Fatalf("slug should not change, got %q", dto.Slug)
	}
	if dto.Published {
		t.Fatal("expected post unpublished")
	}
}

type stubReleaser struct {
	released []string
	fail     error
}

func (s *stubReleaser) ReleaseByURL(_ context.Context, publicURL string) error {
	if s.fail != nil {
		return s.fail
	}
	s.released = append(s.released, publicURL)
	return nil
}

func TestUpdateReleasesReplacedThumbnail(t *testing.T) {
	post := publishedPost("Báo cáo", "bao-cao")
	oldURL := "https://storage.googleapis.com/bucket/media/a/old.png"
	post.ThumbnailURL = &oldURL
	repo := newStubPostRepo(post)
	releaser := &stubReleaser{}
	svc, err := NewServiceWithAssets(repo, releaser, nil)
	if err != nil {
		t.Fatalf("NewServiceWithAssets: %v", err)
	}

	newURL := "https://storage.googleapis.com/bucket/media/b/new.png"
	if _, err := svc.Update(context.Background(), post.ID, UpdatePostInput{ThumbnailURL: &newURL}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(releaser.released) != 1 || releaser.released[0] != oldURL {
		t.Fatalf("expected old thumbnail released, got %v", releaser.released)
	}

	// Re-submitting the same URL must not release it.
	if _, err := svc.Update(context.Background(), post.ID, UpdatePostInput{ThumbnailURL: &newURL}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(releaser.released) != 1 {
		t.Fatalf("unchanged thumbnail should not be released, got %v", releaser.released)
	}
}

func TestDeleteReleasesThumbnail(t *testing.T) {
	post := publishedPost("Khảo sát", "khao-sat")
	url := "https://storage.googleapis.com/bucket/media/c/thumb.png"
	post.ThumbnailURL = &url
	repo := newStubPostRepo(post)
	releaser := &stubReleaser{}
	svc, err := NewServiceWithAssets(repo, releaser, nil)
	if err != nil {
		t.Fatalf("NewServiceWithAssets: %v", err)
	}

	if err := svc.Delete(context.Background(), post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(releaser.released) != 1 || releaser.released[0] != url {
		t.Fatalf("expected thumbnail released on delete, got %v", releaser.released)
	}
}

func TestFailedThumbnailReleaseIsLoggedNotReturned(t *testing.T) {
	post := publishedPost("Khảo sát", "khao-sat")
	url := "https://storage.googleapis.com/bucket/media/d/thumb.png"
	post.ThumbnailURL = &url
	repo := newStubPostRepo(post)

	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})
	releaser := &stubReleaser{fail: errors.New("bucket unavailable")}
	svc, err := NewServiceWithAssets(repo, releaser, logg)
	if err != nil {
		t.Fatalf("NewServiceWithAssets: %v", err)
	}

	if err := svc.Delete(context.Background(), post.ID); err != nil {
		t.Fatalf("Delete must not fail on cleanup errors: %v", err)
	}
	if !strings.Contains(logs.String(), "failed to release post thumbnail") {
		t.Fatalf("expected cleanup failure logged, got %q", logs.String())
	}
	if !strings.Contains(logs.String(), url) {
		t.Fatalf("expected thumbnail url in log, got %q", logs.String())
	}
}

func TestUpdateUnknownPostReturnsNotFound(t *testing.T) {
	svc := buildPostService(t, newStubPostRepo())

	_, err := svc.Update(context.Background(), uuid.New(), UpdatePostInput{})
	assertPostErrCode(t, err, pkgerrors.CodeNotFound)
}

func TestListHidesDraftsByDefault(t *testing.T) {
	published := publishedPost("Công khai", "cong-khai")
	draft := publishedPost("Nháp", "nhap")
	draft.Published = false
	svc := buildPostService(t, newStubPostRepo(published, draft))

	out, err := svc.List(context.Background(), ListInput{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Slug != "cong-khai" {
		t.Fatalf("expected only the published post, got %d items", len(out.Items))
	}

	adminOut, err := svc.List(context.Background(), ListInput{IncludeDrafts: true})
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if len(adminOut.Items) != 2 {
		t.Fatalf("expected drafts included, got %d items", len(adminOut.Items))
	}
}

func TestListRejectsMalformedCursor(t *testing.T) {
	svc := buildPostService(t, newStubPostRepo())

	input := ListInput{}
	input.Pagination.Cursor = "not-base64!!"
	_, err := svc.List(context.Background(), input)
	assertPostErrCode(t, err, pkgerrors.CodeValidation)
}
