package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/wangdaguo68/kinghome/internal/model"
)

// postRowColumns 与 postColumns 对应的 sqlmock 列名。
var postRowColumns = []string{
	"id", "user_id", "title", "content", "summary", "plan", "mood",
	"date", "status", "views", "created_at", "updated_at",
}

// newPostRow 生成一行复盘测试数据。
func newPostRow(id int64, date string, created time.Time) []driver.Value {
	return []driver.Value{
		id, int64(1), "今日复盘", "<p>内容</p>", "总结", "计划", "平静",
		date, "published", int64(3), created, created,
	}
}

func TestPostgresPostRepo_List_DefaultStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Now()
	rows := sqlmock.NewRows(postRowColumns).
		AddRow(newPostRow(2, "2026-08-02", created)...).
		AddRow(newPostRow(1, "2026-08-01", created)...)

	// 状态缺省时按 published 过滤
	mock.ExpectQuery(`SELECT p\.id, .+ FROM posts p WHERE p\.status = \$1 ORDER BY p\.date DESC, p\.created_at DESC`).
		WithArgs("published").
		WillReturnRows(rows)

	repo := NewPostgresPostRepo(db)
	posts, err := repo.List(context.Background(), model.PostFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
	if posts[0].ID != 2 || posts[0].Date != "2026-08-02" {
		t.Errorf("posts[0] = {ID:%d, Date:%q}, want {ID:2, Date:2026-08-02}", posts[0].ID, posts[0].Date)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_List_CategoryJoinWithPaging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows(postRowColumns).
		AddRow(newPostRow(11, "2026-08-10", time.Now())...)

	// 分类过滤走 SQL 连接，分页在第二页
	mock.ExpectQuery(`SELECT p\.id, .+ FROM posts p JOIN post_categories pc ON pc\.post_id = p\.id WHERE pc\.category_id = \$1 AND p\.status = \$2 .+ LIMIT 10 OFFSET 10`).
		WithArgs(int64(7), "published").
		WillReturnRows(rows)

	repo := NewPostgresPostRepo(db)
	posts, err := repo.List(context.Background(), model.PostFilter{
		CategoryID: 7,
		Page:       2,
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_List_CategoryFilterNotDistinct(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// 选择列表里 date 只有 to_char 别名，没有裸的 p.date。
	// 带 DISTINCT 时 ORDER BY p.date 会被 PostgreSQL 以 42P10 拒绝，
	// 所以分类过滤的查询必须以 SELECT p.id 开头（不是 SELECT DISTINCT）。
	mock.ExpectQuery(`^SELECT p\.id, .+ ORDER BY p\.date DESC, p\.created_at DESC$`).
		WithArgs(int64(7), "published").
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	repo := NewPostgresPostRepo(db)
	if _, err := repo.List(context.Background(), model.PostFilter{CategoryID: 7}); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_List_StatusAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// all 状态不加状态谓词
	mock.ExpectQuery(`SELECT p\.id, .+ FROM posts p ORDER BY p\.date DESC, p\.created_at DESC`).
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	repo := NewPostgresPostRepo(db)
	posts, err := repo.List(context.Background(), model.PostFilter{Status: model.StatusFilterAll})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("len(posts) = %d, want 0", len(posts))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_Count_Distinct(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// 同一复盘关联多个分类时不得重复计数
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT p\.id\) FROM posts p JOIN post_categories pc ON pc\.post_id = p\.id WHERE pc\.category_id = \$1 AND p\.status = \$2`).
		WithArgs(int64(7), "published").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	repo := NewPostgresPostRepo(db)
	count, err := repo.Count(context.Background(), model.PostFilter{CategoryID: 7, Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d, want 42", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM posts p WHERE p\.id = \$1`).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	repo := NewPostgresPostRepo(db)
	post, err := repo.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if post != nil {
		t.Errorf("post = %+v, want nil", post)
	}
}

func TestPostgresPostRepo_Create_DefaultsToPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO posts .+ RETURNING id`).
		WithArgs(int64(1), "今日复盘", "<p>内容</p>", "", "", "", "2026-08-28", "published").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	repo := NewPostgresPostRepo(db)
	id, err := repo.Create(context.Background(), &model.Post{
		UserID:  1,
		Title:   "今日复盘",
		Content: "<p>内容</p>",
		Date:    "2026-08-28",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != 5 {
		t.Errorf("id = %d, want 5", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_Update_Partial(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE posts SET title = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs("更新后的标题", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresPostRepo(db)
	title := "更新后的标题"
	applied, err := repo.Update(context.Background(), 3, model.PostUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !applied {
		t.Error("applied = false, want true")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_Update_EmptyIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// 空更新不发出任何语句
	repo := NewPostgresPostRepo(db)
	applied, err := repo.Update(context.Background(), 3, model.PostUpdate{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if applied {
		t.Error("applied = true, want false")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("空更新不应触达数据库: %v", err)
	}
}

func TestPostgresPostRepo_DeleteMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// IN 列表通过参数绑定展开
	mock.ExpectExec(`DELETE FROM posts WHERE id IN \(\$1,\$2,\$3\)`).
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewPostgresPostRepo(db)
	if err := repo.DeleteMany(context.Background(), []int64{1, 2, 3}); err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_DeleteMany_EmptySkips(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewPostgresPostRepo(db)
	if err := repo.DeleteMany(context.Background(), nil); err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("空集合不应触达数据库: %v", err)
	}
}

func TestPostgresPostRepo_IncrementViews(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// 单条相对更新，避免读-改-写丢失计数
	mock.ExpectExec(`UPDATE posts SET views = views \+ 1 WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresPostRepo(db)
	if err := repo.IncrementViews(context.Background(), 3); err != nil {
		t.Fatalf("IncrementViews() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresPostRepo_LatestInCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows(postRowColumns).
		AddRow(newPostRow(9, "2026-08-27", time.Now())...)

	mock.ExpectQuery(`SELECT .+ FROM posts p\s+JOIN post_categories pc ON pc\.post_id = p\.id\s+JOIN categories c ON c\.id = pc\.category_id\s+WHERE p\.user_id = \$1 AND c\.name = \$2`).
		WithArgs(int64(1), "日复盘").
		WillReturnRows(rows)

	repo := NewPostgresPostRepo(db)
	post, err := repo.LatestInCategory(context.Background(), 1, "日复盘")
	if err != nil {
		t.Fatalf("LatestInCategory() error = %v", err)
	}
	if post == nil || post.ID != 9 {
		t.Fatalf("post = %+v, want ID 9", post)
	}
}

func TestPostgresPostRepo_LatestInCategory_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM posts p`).
		WithArgs(int64(1), "周复盘").
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	repo := NewPostgresPostRepo(db)
	post, err := repo.LatestInCategory(context.Background(), 1, "周复盘")
	if err != nil {
		t.Fatalf("LatestInCategory() error = %v", err)
	}
	if post != nil {
		t.Errorf("post = %+v, want nil", post)
	}
}
