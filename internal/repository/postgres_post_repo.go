package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/wangdaguo68/kinghome/internal/model"
)

// postColumns 是复盘查询的统一列清单。
// date 以 to_char 转成 YYYY-MM-DD 字符串，避免驱动返回的时区化 time.Time。
var postColumns = []string{
	"p.id", "p.user_id", "p.title", "p.content", "p.summary", "p.plan", "p.mood",
	"to_char(p.date, 'YYYY-MM-DD') AS date", "p.status", "p.views", "p.created_at", "p.updated_at",
}

// PostgresPostRepo 是基于 PostgreSQL 的复盘仓库。
// 动态过滤、IN 列表和 LIMIT/OFFSET 一律通过 squirrel 构建并绑定参数，
// 不做字符串拼接。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo 生成 PostgresPostRepo。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// scanner 抽象 sql.Row 与 sql.Rows 的 Scan。
type scanner interface {
	Scan(dest ...any) error
}

// scanPost 按 postColumns 的顺序扫描一行复盘。
func scanPost(s scanner) (*model.Post, error) {
	post := &model.Post{}
	err := s.Scan(
		&post.ID, &post.UserID, &post.Title, &post.Content, &post.Summary,
		&post.Plan, &post.Mood, &post.Date, &post.Status, &post.Views,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// applyFilter 把过滤条件转成查询谓词。List 与 Count 共用，保证语义一致。
func applyFilter(b sq.SelectBuilder, filter model.PostFilter) sq.SelectBuilder {
	if filter.CategoryID != 0 {
		b = b.Join("post_categories pc ON pc.post_id = p.id").
			Where(sq.Eq{"pc.category_id": filter.CategoryID})
	}
	if filter.Status != model.StatusFilterAll {
		b = b.Where(sq.Eq{"p.status": string(filter.Status)})
	}
	if filter.Date != "" {
		b = b.Where(sq.Eq{"p.date": filter.Date})
	}
	return b
}

// List 按过滤条件返回复盘列表，按 (date, created_at) 倒序。
func (r *PostgresPostRepo) List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
	filter = filter.Normalize()

	// 不加 DISTINCT：分类连接按 post_categories 主键 (post_id, category_id)
	// 的单值等式匹配，每篇至多命中一行，不会放大行数。
	// DISTINCT 还会让 ORDER BY p.date 触发 42P10（选择列表只有 to_char 别名）。
	b := sq.Select(postColumns...).
		From("posts p").
		PlaceholderFormat(sq.Dollar).
		OrderBy("p.date DESC", "p.created_at DESC")
	b = applyFilter(b, filter)

	if filter.PageSize > 0 {
		b = b.Limit(uint64(filter.PageSize)).Offset(uint64(filter.Offset()))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// Count 返回去重后的复盘总数，过滤语义与 List 相同，忽略分页。
func (r *PostgresPostRepo) Count(ctx context.Context, filter model.PostFilter) (int64, error) {
	filter = filter.Normalize()

	b := sq.Select("COUNT(DISTINCT p.id)").
		From("posts p").
		PlaceholderFormat(sq.Dollar)
	b = applyFilter(b, filter)

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return count, nil
}

// GetByID 按 ID 获取复盘。不存在时返回 nil。
func (r *PostgresPostRepo) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.user_id, p.title, p.content, p.summary, p.plan, p.mood,
		        to_char(p.date, 'YYYY-MM-DD') AS date, p.status, p.views, p.created_at, p.updated_at
		 FROM posts p WHERE p.id = $1`,
		id,
	)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}

	return post, nil
}

// Create 创建复盘并返回新分配的 ID。views 由表默认值初始化为 0。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) (int64, error) {
	status := post.Status
	if status == "" {
		status = model.PostStatusPublished
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (user_id, title, content, summary, plan, mood, date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		post.UserID, post.Title, post.Content, post.Summary, post.Plan,
		post.Mood, post.Date, string(status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}

	return id, nil
}

// Update 按 PostUpdate 做部分更新。
// 没有任何待更新字段时不发出语句，返回 applied=false，
// 调用方据此区分"无事可做"与真正的失败。
func (r *PostgresPostRepo) Update(ctx context.Context, id int64, update model.PostUpdate) (bool, error) {
	if update.IsEmpty() {
		return false, nil
	}

	b := sq.Update("posts").PlaceholderFormat(sq.Dollar)

	if update.Title != nil {
		b = b.Set("title", *update.Title)
	}
	if update.Content != nil {
		b = b.Set("content", *update.Content)
	}
	if update.Summary != nil {
		b = b.Set("summary", *update.Summary)
	}
	if update.Plan != nil {
		b = b.Set("plan", *update.Plan)
	}
	if update.Mood != nil {
		b = b.Set("mood", *update.Mood)
	}
	if update.Date != nil {
		b = b.Set("date", *update.Date)
	}
	if update.Status != nil {
		b = b.Set("status", string(*update.Status))
	}
	b = b.Set("updated_at", sq.Expr("now()")).Where(sq.Eq{"id": id})

	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("failed to update post: %w", err)
	}

	return true, nil
}

// Delete 删除单篇复盘。关联行由外键级联清理。目标不存在时不报错。
func (r *PostgresPostRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// DeleteMany 按 ID 集合批量删除。IN 列表通过参数绑定展开。
func (r *PostgresPostRepo) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sq.Delete("posts").
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build batch delete query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete posts: %w", err)
	}
	return nil
}

// IncrementViews 以单条相对更新把浏览计数加一。
// 不做应用层读-改-写，并发访问不会丢失计数。
func (r *PostgresPostRepo) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// LatestInCategory 返回指定用户在指定分类名下最新的一篇复盘。
// 用于新建复盘时预填上一篇的 summary/plan。没有时返回 nil。
func (r *PostgresPostRepo) LatestInCategory(ctx context.Context, userID int64, categoryName string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.user_id, p.title, p.content, p.summary, p.plan, p.mood,
		        to_char(p.date, 'YYYY-MM-DD') AS date, p.status, p.views, p.created_at, p.updated_at
		 FROM posts p
		 JOIN post_categories pc ON pc.post_id = p.id
		 JOIN categories c ON c.id = pc.category_id
		 WHERE p.user_id = $1 AND c.name = $2
		 ORDER BY p.date DESC, p.created_at DESC
		 LIMIT 1`,
		userID, categoryName,
	)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest post in category: %w", err)
	}

	return post, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
