// Package security 提供应用的安全功能。
//
// ContentSanitizerService 对复盘的富文本内容做持久化前的清洗，
// 基于 bluemonday 的允许列表策略，只放行编辑器会产生的标签与属性，
// 防止存储型 XSS。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService 定义 HTML 内容清洗的接口。
// 复盘的 content/summary/plan 在写入前统一经过该服务。
type ContentSanitizerService interface {
	// Sanitize 清洗 HTML 并返回安全的标记。
	// script、iframe、style 标签和 on* 事件属性一律移除。
	// 空字符串输入返回空字符串；同一输入恒得同一输出（幂等）。
	Sanitize(rawHTML string) string
}

// contentSanitizer 是 ContentSanitizerService 的实现。
// bluemonday 策略可安全地被并发使用。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer 生成 ContentSanitizerService 实例。
// 允许列表覆盖富文本编辑器的输出：
//   - 段落与结构: p, br, h1-h4, ul, ol, li, blockquote, pre, code, hr
//   - 行内格式: strong, em, u, s, span（仅 style 中的颜色类内联样式由编辑器侧负责，这里不放行 style 属性）
//   - 链接: a[href]，强制 rel="noopener noreferrer"
//   - 图片: img[src alt]，仅 https
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "h1", "h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote", "pre", "code", "hr",
		"strong", "em", "u", "s", "span",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemes("https")

	return &contentSanitizer{policy: p}
}

// Sanitize 清洗 HTML 并返回安全的标记。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
