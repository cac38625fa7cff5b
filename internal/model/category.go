package model

import "time"

// Category 表示复盘分类。
// 分类在应用层只增不删：删除复盘会级联清理关联行，但分类本身保留。
type Category struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}
