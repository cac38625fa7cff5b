package post

import (
	"context"
	"errors"
	"testing"

	"github.com/wangdaguo68/kinghome/internal/model"
)

// --- mock 定义 ---

// mockPostRepo 是 PostRepository 的 mock 实现。
type mockPostRepo struct {
	listFn             func(ctx context.Context, filter model.PostFilter) ([]*model.Post, error)
	countFn            func(ctx context.Context, filter model.PostFilter) (int64, error)
	getByIDFn          func(ctx context.Context, id int64) (*model.Post, error)
	createFn           func(ctx context.Context, post *model.Post) (int64, error)
	updateFn           func(ctx context.Context, id int64, update model.PostUpdate) (bool, error)
	deleteFn           func(ctx context.Context, id int64) error
	deleteManyFn       func(ctx context.Context, ids []int64) error
	incrementViewsFn   func(ctx context.Context, id int64) error
	latestInCategoryFn func(ctx context.Context, userID int64, categoryName string) (*model.Post, error)
}

func (m *mockPostRepo) List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockPostRepo) Count(ctx context.Context, filter model.PostFilter) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, filter)
	}
	return 0, nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return 1, nil
}

func (m *mockPostRepo) Update(ctx context.Context, id int64, update model.PostUpdate) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, update)
	}
	return true, nil
}

func (m *mockPostRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPostRepo) DeleteMany(ctx context.Context, ids []int64) error {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, ids)
	}
	return nil
}

func (m *mockPostRepo) IncrementViews(ctx context.Context, id int64) error {
	if m.incrementViewsFn != nil {
		return m.incrementViewsFn(ctx, id)
	}
	return nil
}

func (m *mockPostRepo) LatestInCategory(ctx context.Context, userID int64, categoryName string) (*model.Post, error) {
	if m.latestInCategoryFn != nil {
		return m.latestInCategoryFn(ctx, userID, categoryName)
	}
	return nil, nil
}

// mockCategoryRepo 是 CategoryRepository 的 mock 实现。
type mockCategoryRepo struct {
	listAllFn        func(ctx context.Context) ([]*model.Category, error)
	getByIDFn        func(ctx context.Context, id int64) (*model.Category, error)
	createFn         func(ctx context.Context, name, description string) (int64, error)
	listForPostFn    func(ctx context.Context, postID int64) ([]*model.Category, error)
	replaceForPostFn func(ctx context.Context, postID int64, categoryIDs []int64) error
}

func (m *mockCategoryRepo) ListAll(ctx context.Context) ([]*model.Category, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, name, description string) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, description)
	}
	return 1, nil
}

func (m *mockCategoryRepo) ListForPost(ctx context.Context, postID int64) ([]*model.Category, error) {
	if m.listForPostFn != nil {
		return m.listForPostFn(ctx, postID)
	}
	return nil, nil
}

func (m *mockCategoryRepo) ReplaceForPost(ctx context.Context, postID int64, categoryIDs []int64) error {
	if m.replaceForPostFn != nil {
		return m.replaceForPostFn(ctx, postID, categoryIDs)
	}
	return nil
}

// passthroughSanitizer 原样返回输入。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

// markingSanitizer 给输入加前缀，用于确认清洗确实发生。
type markingSanitizer struct{}

func (markingSanitizer) Sanitize(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	return "clean:" + rawHTML
}

// --- List 测试 ---

func TestService_List_PaginationMath(t *testing.T) {
	postRepo := &mockPostRepo{
		listFn: func(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
			return []*model.Post{{ID: 1}, {ID: 2}}, nil
		},
		countFn: func(ctx context.Context, filter model.PostFilter) (int64, error) {
			return 25, nil
		},
	}

	svc := NewService(postRepo, &mockCategoryRepo{}, passthroughSanitizer{})
	result, err := svc.List(context.Background(), model.PostFilter{Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if result.Total != 25 {
		t.Errorf("Total = %d, want 25", result.Total)
	}
	if result.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3 (ceil(25/10))", result.TotalPages)
	}
	if result.Page != 2 || result.PageSize != 10 {
		t.Errorf("Page/PageSize = %d/%d, want 2/10", result.Page, result.PageSize)
	}
}

func TestService_List_NoPagination(t *testing.T) {
	postRepo := &mockPostRepo{
		countFn: func(ctx context.Context, filter model.PostFilter) (int64, error) {
			return 5, nil
		},
	}

	svc := NewService(postRepo, &mockCategoryRepo{}, passthroughSanitizer{})
	result, err := svc.List(context.Background(), model.PostFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if result.TotalPages != 0 || result.PageSize != 0 {
		t.Errorf("不分页时 TotalPages/PageSize 应为 0, got %d/%d", result.TotalPages, result.PageSize)
	}
}

func TestService_List_NormalizesFilter(t *testing.T) {
	var gotFilter model.PostFilter
	postRepo := &mockPostRepo{
		listFn: func(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
			gotFilter = filter
			return nil, nil
		},
	}

	svc := NewService(postRepo, &mockCategoryRepo{}, passthroughSanitizer{})
	if _, err := svc.List(context.Background(), model.PostFilter{Status: "bogus", Page: -1}); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if gotFilter.Status != model.StatusFilterPublished {
		t.Errorf("Status = %q, want published", gotFilter.Status)
	}
	if gotFilter.Page != 1 {
		t.Errorf("Page = %d, want 1", gotFilter.Page)
	}
}

// --- GetDetail 测试 ---

func TestService_GetDetail_IncrementsViews(t *testing.T) {
	incremented := false
	postRepo := &mockPostRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, Views: 3}, nil
		},
		incrementViewsFn: func(ctx context.Context, id int64) error {
			incremented = true
			return nil
		},
	}
	categoryRepo := &mockCategoryRepo{
		listForPostFn: func(ctx context.Context, postID int64) ([]*model.Category, error) {
			return []*model.Category{{ID: 1, Name: "日复盘"}}, nil
		},
	}

	svc := NewService(postRepo, categoryRepo, passthroughSanitizer{})
	detail, err := svc.GetDetail(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetDetail() error = %v", err)
	}

	if !incremented {
		t.Error("详情获取应当递增浏览计数")
	}
	// 返回的是计入本次访问之后的值
	if detail.Post.Views != 4 {
		t.Errorf("Views = %d, want 4", detail.Post.Views)
	}
	if len(detail.Categories) != 1 {
		t.Errorf("len(Categories) = %d, want 1", len(detail.Categories))
	}
}

func TestService_GetDetail_NotFound(t *testing.T) {
	postRepo := &mockPostRepo{
		incrementViewsFn: func(ctx context.Context, id int64) error {
			t.Error("不存在的复盘不应递增计数")
			return nil
		},
	}

	svc := NewService(postRepo, &mockCategoryRepo{}, passthroughSanitizer{})
	detail, err := svc.GetDetail(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetDetail() error = %v", err)
	}
	if detail != nil {
		t.Errorf("detail = %+v, want nil", detail)
	}
}

// --- Create 测试 ---

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(&mockPostRepo{}, &mockCategoryRepo{}, passthroughSanitizer{})

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"标题为空", CreateInput{Content: "内容", Date: "2026-08-28"}},
		{"内容为空", CreateInput{Title: "标题", Date: "2026-08-28"}},
		{"日期为空", CreateInput{Title: "标题", Content: "内容"}},
		{"状态非法", CreateInput{Title: "标题", Content: "内容", Date: "2026-08-28", Status: "bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Errorf("err = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestService_Create_SanitizesRichText(t *testing.T) {
	var created *model.Post
	postRepo := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) (int64, error) {
			created = post
			return 9, nil
		},
	}

	svc := NewService(postRepo, &mockCategoryRepo{}, markingSanitizer{})
	id, err := svc.Create(context.Background(), 1, CreateInput{
		Title:   "标题",
		Content: "<p>内容</p>",
		Summary: "<p>总结</p>",
		Plan:    "<p>计划</p>",
		Mood:    "平静",
		Date:    "2026-08-28",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != 9 {
		t.Errorf("id = %d, want 9", id)
	}

	// 富文本字段统一清洗；mood 不是富文本，保持原样
	if created.Content != "clean:<p>内容</p>" {
		t.Errorf("Content = %q, 应经过清洗", created.Content)
	}
	if created.Summary != "clean:<p>总结</p>" {
		t.Errorf("Summary = %q, 应经过清洗", created.Summary)
	}
	if created.Plan != "clean:<p>计划</p>" {
		t.Errorf("Plan = %q, 应经过清洗", created.Plan)
	}
	if created.Mood != "平静" {
		t.Errorf("Mood = %q, 不应被改动", created.Mood)
	}
}

func TestService_Create_AssignsCategories(t *testing.T) {
	var replacedIDs []int64
	categoryRepo := &mockCategoryRepo{
		replaceForPostFn: func(ctx context.Context, postID int64, categoryIDs []int64) error {
			if postID != 9 {
				t.Errorf("postID = %d, want 9", postID)
			}
			replacedIDs = categoryIDs
			return nil
		},
	}
	postRepo := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) (int64, error) {
			return 9, nil
		},
	}

	svc := NewService(postRepo, categoryRepo, passthroughSanitizer{})
	_, err := svc.Create(context.Background(), 1, CreateInput{
		Title:       "标题",
		Content:     "内容",
		Date:        "2026-08-28",
		CategoryIDs: []int64{1, 2},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(replacedIDs) != 2 {
		t.Errorf("关联分类数 = %d, want 2", len(replacedIDs))
	}
}

// --- Update 测试 ---

func TestService_Update_EmptyFieldsIsValidationError(t *testing.T) {
	postRepo := &mockPostRepo{
		updateFn: func(ctx context.Context, id int64, update model.PostUpdate) (bool, error) {
			return false, nil
		},
	}

	svc := NewService(postRepo, &mockCategoryRepo{}, passthroughSanitizer{})
	err := svc.Update(context.Background(), 3, UpdateInput{})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestService_Update_SanitizesPointerFields(t *testing.T) {
	var gotUpdate model.PostUpdate
	postRepo := &mockPostRepo{
		updateFn: func(ctx context.Context, id int64, update model.PostUpdate) (bool, error) {
			gotUpdate = update
			return true, nil
		},
	}

	svc := NewService(postRepo, &mockCategoryRepo{}, markingSanitizer{})
	content := "<p>新内容</p>"
	title := "新标题"
	err := svc.Update(context.Background(), 3, UpdateInput{
		Fields: model.PostUpdate{Title: &title, Content: &content},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if *gotUpdate.Content != "clean:<p>新内容</p>" {
		t.Errorf("Content = %q, 应经过清洗", *gotUpdate.Content)
	}
	if *gotUpdate.Title != "新标题" {
		t.Errorf("Title = %q, 标题不是富文本不应清洗", *gotUpdate.Title)
	}
}

func TestService_Update_InvalidStatus(t *testing.T) {
	svc := NewService(&mockPostRepo{}, &mockCategoryRepo{}, passthroughSanitizer{})
	status := model.PostStatus("bogus")
	err := svc.Update(context.Background(), 3, UpdateInput{
		Fields: model.PostUpdate{Status: &status},
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestService_Update_ReplacesCategoriesOnlyWhenRequested(t *testing.T) {
	replaceCalled := false
	categoryRepo := &mockCategoryRepo{
		replaceForPostFn: func(ctx context.Context, postID int64, categoryIDs []int64) error {
			replaceCalled = true
			if len(categoryIDs) != 0 {
				t.Errorf("categoryIDs = %v, want 空集合", categoryIDs)
			}
			return nil
		},
	}

	svc := NewService(&mockPostRepo{}, categoryRepo, passthroughSanitizer{})
	title := "新标题"

	// ReplaceCats=false 时不动关联
	if err := svc.Update(context.Background(), 3, UpdateInput{
		Fields: model.PostUpdate{Title: &title},
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if replaceCalled {
		t.Fatal("未请求替换时不应触碰分类关联")
	}

	// ReplaceCats=true 且空集合表示清空全部关联
	if err := svc.Update(context.Background(), 3, UpdateInput{
		Fields:      model.PostUpdate{Title: &title},
		ReplaceCats: true,
		CategoryIDs: []int64{},
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !replaceCalled {
		t.Error("请求替换时应当调用 ReplaceForPost")
	}
}

// --- Delete / BatchDelete / LatestInCategory 测试 ---

func TestService_BatchDelete_EmptyIDs(t *testing.T) {
	svc := NewService(&mockPostRepo{}, &mockCategoryRepo{}, passthroughSanitizer{})
	err := svc.BatchDelete(context.Background(), nil)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestService_BatchDelete_PassesIDs(t *testing.T) {
	var gotIDs []int64
	postRepo := &mockPostRepo{
		deleteManyFn: func(ctx context.Context, ids []int64) error {
			gotIDs = ids
			return nil
		},
	}

	svc := NewService(postRepo, &mockCategoryRepo{}, passthroughSanitizer{})
	if err := svc.BatchDelete(context.Background(), []int64{1, 2, 3}); err != nil {
		t.Fatalf("BatchDelete() error = %v", err)
	}
	if len(gotIDs) != 3 {
		t.Errorf("len(ids) = %d, want 3", len(gotIDs))
	}
}

func TestService_LatestInCategory_NilWhenAbsent(t *testing.T) {
	svc := NewService(&mockPostRepo{}, &mockCategoryRepo{}, passthroughSanitizer{})
	p, err := svc.LatestInCategory(context.Background(), 1, "日复盘")
	if err != nil {
		t.Fatalf("LatestInCategory() error = %v", err)
	}
	if p != nil {
		t.Errorf("post = %+v, want nil", p)
	}
}
