package model

import "time"

// PostStatus 表示复盘的发布状态。
type PostStatus string

const (
	// PostStatusDraft 表示草稿，仅作者可见。
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublished 表示已发布。
	PostStatusPublished PostStatus = "published"
)

// Valid 判断状态值是否合法。
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post 表示一篇日期化的复盘（笔记）。
// date 是业务日期（哪一天的复盘），与 created_at 的写入时刻相互独立。
type Post struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string // 富文本，存储为 HTML 标记
	Summary   string
	Plan      string
	Mood      string
	Date      string // YYYY-MM-DD
	Status    PostStatus
	Views     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusFilter 表示列表查询的状态过滤。
type StatusFilter string

const (
	// StatusFilterDraft 只返回草稿。
	StatusFilterDraft StatusFilter = "draft"
	// StatusFilterPublished 只返回已发布（默认）。
	StatusFilterPublished StatusFilter = "published"
	// StatusFilterAll 不按状态过滤。
	StatusFilterAll StatusFilter = "all"
)

// PostFilter 表示复盘列表/计数的过滤与分页条件。
// 所有字段均为可选；零值表示不过滤。
type PostFilter struct {
	Status     StatusFilter
	Date       string // 精确匹配业务日期（YYYY-MM-DD）
	CategoryID int64  // 按分类关联过滤（通过 post_categories 连接）
	Page       int    // 1 起始页码
	PageSize   int    // 每页行数；0 表示不分页，返回全部
}

// Normalize 将过滤条件规整为已知安全的取值范围。
// 状态为空时回退到 published；非法状态视为 published。
// 页码和页大小被钳制为非负，page 至少为 1（仅当分页生效时使用）。
func (f PostFilter) Normalize() PostFilter {
	switch f.Status {
	case StatusFilterDraft, StatusFilterPublished, StatusFilterAll:
	default:
		f.Status = StatusFilterPublished
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 0 {
		f.PageSize = 0
	}
	return f
}

// Offset 返回 LIMIT/OFFSET 分页的偏移量。不分页时返回 0。
func (f PostFilter) Offset() int {
	if f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// PostUpdate 表示对复盘的部分更新。
// nil 字段保持不变；全部为 nil 时更新是空操作。
// 显式的指针字段让可更新集合静态可枚举，替代来源系统的动态字段收集。
type PostUpdate struct {
	Title   *string
	Content *string
	Summary *string
	Plan    *string
	Mood    *string
	Date    *string
	Status  *PostStatus
}

// IsEmpty 判断是否没有任何待更新字段。
func (u PostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.Summary == nil &&
		u.Plan == nil && u.Mood == nil && u.Date == nil && u.Status == nil
}
