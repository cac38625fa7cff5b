// Package repository 定义数据持久化接口及其 PostgreSQL 实现。
package repository

import (
	"context"

	"github.com/wangdaguo68/kinghome/internal/model"
)

// UserRepository 是用户数据的持久化接口。
type UserRepository interface {
	// FindByID 按 ID 获取用户。不存在时返回 nil。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername 按用户名获取用户。不存在时返回 nil。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create 创建用户并返回新分配的 ID。
	Create(ctx context.Context, user *model.User) (int64, error)

	// UpdatePassword 更新用户的凭据字段。
	// 用于引导账号的密码重置和明文口令的就地升级。
	UpdatePassword(ctx context.Context, id int64, password string) error
}

// SessionRepository 是会话数据的持久化接口。
type SessionRepository interface {
	// Create 创建会话。
	Create(ctx context.Context, session *model.Session) error
	// FindByID 按 ID 获取会话。不存在或已过期时返回 nil，这不是错误。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID 删除指定会话。目标不存在时不报错。
	DeleteByID(ctx context.Context, id string) error
}

// PostRepository 是复盘数据的持久化接口。
// 列表排序固定为 date DESC, created_at DESC，复盘按日期倒序展示
// 是产品层约定，所有查询路径都必须遵守。
type PostRepository interface {
	// List 按过滤条件返回复盘列表。
	// filter.CategoryID 非零时通过 post_categories 连接过滤（SQL 侧，不在应用层过滤）。
	// filter.PageSize 为 0 时返回全部匹配行。
	List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error)

	// Count 返回与 List 相同过滤条件下去重后的复盘总数（忽略分页）。
	// 去重按 post id，分页计算依赖该不变量。
	Count(ctx context.Context, filter model.PostFilter) (int64, error)

	// GetByID 按 ID 获取复盘。不存在时返回 nil。
	GetByID(ctx context.Context, id int64) (*model.Post, error)

	// Create 创建复盘并返回新分配的 ID。views 初始为 0。
	Create(ctx context.Context, post *model.Post) (int64, error)

	// Update 按 PostUpdate 做部分更新。
	// 没有任何待更新字段时不发出语句，返回 applied=false。
	Update(ctx context.Context, id int64, update model.PostUpdate) (bool, error)

	// Delete 删除单篇复盘。目标不存在时不报错（幂等）。
	Delete(ctx context.Context, id int64) error

	// DeleteMany 按 ID 集合批量删除。不存在的 ID 被忽略。
	DeleteMany(ctx context.Context, ids []int64) error

	// IncrementViews 将浏览计数原子加一。
	// 必须以单条相对更新语句实现，并发详情页访问不得丢失计数。
	IncrementViews(ctx context.Context, id int64) error

	// LatestInCategory 返回指定用户在指定分类名下
	// (date, created_at) 最大的一篇复盘。没有时返回 nil。
	LatestInCategory(ctx context.Context, userID int64, categoryName string) (*model.Post, error)
}

// CategoryRepository 是分类数据及复盘-分类关联的持久化接口。
type CategoryRepository interface {
	// ListAll 返回全部分类，按名称升序。
	ListAll(ctx context.Context) ([]*model.Category, error)

	// GetByID 按 ID 获取分类。不存在时返回 nil。
	GetByID(ctx context.Context, id int64) (*model.Category, error)

	// Create 创建分类并返回新分配的 ID。
	// 名称与现有分类重复时返回 DuplicateName 错误。
	Create(ctx context.Context, name, description string) (int64, error)

	// ListForPost 返回指定复盘关联的全部分类。
	ListForPost(ctx context.Context, postID int64) ([]*model.Category, error)

	// ReplaceForPost 整体替换复盘的分类关联：先删旧关联再插入新集合。
	// 两步在同一事务内执行，任一失败则原关联保持不变。
	// categoryIDs 为空时只做删除。重试安全（幂等）。
	ReplaceForPost(ctx context.Context, postID int64, categoryIDs []int64) error
}
