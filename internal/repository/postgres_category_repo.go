package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/wangdaguo68/kinghome/internal/model"
)

// pgUniqueViolation 是 PostgreSQL unique_violation 的错误码。
const pgUniqueViolation = "23505"

// PostgresCategoryRepo 是基于 PostgreSQL 的分类仓库。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo 生成 PostgresCategoryRepo。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// ListAll 返回全部分类，按名称升序保证界面展示顺序稳定。
func (r *PostgresCategoryRepo) ListAll(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// GetByID 按 ID 获取分类。不存在时返回 nil。
func (r *PostgresCategoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return c, nil
}

// Create 创建分类并返回新分配的 ID。
// 名称唯一约束冲突映射为 DuplicateName 错误，调用方据此给出专门提示。
func (r *PostgresCategoryRepo) Create(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`,
		name, description,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return 0, model.NewDuplicateNameError(name)
		}
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}

	return id, nil
}

// ListForPost 返回指定复盘关联的全部分类。
func (r *PostgresCategoryRepo) ListForPost(ctx context.Context, postID int64) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.description, c.created_at
		 FROM categories c
		 JOIN post_categories pc ON pc.category_id = c.id
		 WHERE pc.post_id = $1
		 ORDER BY c.name ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories for post: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// ReplaceForPost 整体替换复盘的分类关联。
// 删除与插入在同一事务内提交：任一步失败即回滚，原关联保持完整，
// 中途崩溃不会留下替换到一半的关联集合。
func (r *PostgresCategoryRepo) ReplaceForPost(ctx context.Context, postID int64, categoryIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM post_categories WHERE post_id = $1`,
		postID,
	); err != nil {
		return fmt.Errorf("failed to delete post categories: %w", err)
	}

	if len(categoryIDs) > 0 {
		b := sq.Insert("post_categories").
			Columns("post_id", "category_id").
			PlaceholderFormat(sq.Dollar)
		for _, categoryID := range categoryIDs {
			b = b.Values(postID, categoryID)
		}

		query, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert post categories: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
