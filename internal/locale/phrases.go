// Package locale holds the user-visible phrases of the messaging core.
package locale

import (
	"fmt"
	"strings"
	"time"
)

// Phrases is one language's wording for labels, previews and placeholders.
type Phrases struct {
	Tag string

	Yesterday string
	Weekdays  [7]string // indexed by time.Weekday

	RecalledBySelf    string
	RecalledByPartner string
	ImagePreview      string
	EmptyPreview      string
	PlaceholderName   string
	SystemName        string
	AllRead           string

	sameYear  func(t time.Time) string
	otherYear func(t time.Time) string
}

// English is the default phrase set.
var English = Phrases{
	Tag:       "en",
	Yesterday: "yesterday",
	Weekdays:  [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},

	RecalledBySelf:    "You recalled a message",
	RecalledByPartner: "The other party recalled a message",
	ImagePreview:      "[Image]",
	EmptyPreview:      "No messages yet",
	PlaceholderName:   "Classmate",
	SystemName:        "System",
	AllRead:           "All messages marked as read",

	sameYear: func(t time.Time) string {
		return fmt.Sprintf("%d/%d %s", int(t.Month()), t.Day(), t.Format("15:04"))
	},
	otherYear: func(t time.Time) string {
		return fmt.Sprintf("%d/%d/%d %s", t.Year(), int(t.Month()), t.Day(), t.Format("15:04"))
	},
}

// Chinese mirrors the wording of the marketplace web client.
var Chinese = Phrases{
	Tag:       "zh",
	Yesterday: "昨天",
	Weekdays:  [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"},

	RecalledBySelf:    "你撤回了一条消息",
	RecalledByPartner: "对方撤回了一条消息",
	ImagePreview:      "[图片]",
	EmptyPreview:      "暂无聊天记录",
	PlaceholderName:   "同学",
	SystemName:        "系统通知",
	AllRead:           "已全部标为已读",

	sameYear: func(t time.Time) string {
		return fmt.Sprintf("%d月%d日 %s", int(t.Month()), t.Day(), t.Format("15:04"))
	},
	otherYear: func(t time.Time) string {
		return fmt.Sprintf("%d年%d月%d日 %s", t.Year(), int(t.Month()), t.Day(), t.Format("15:04"))
	},
}

// Lookup returns the phrase set for a tag, falling back to English.
func Lookup(tag string) Phrases {
	switch strings.ToLower(tag) {
	case "zh", "zh-cn", "zh_cn":
		return Chinese
	default:
		return English
	}
}

// SameYear formats a date within the current year.
func (p Phrases) SameYear(t time.Time) string {
	if p.sameYear == nil {
		return English.sameYear(t)
	}
	return p.sameYear(t)
}

// OtherYear formats a date outside the current year.
func (p Phrases) OtherYear(t time.Time) string {
	if p.otherYear == nil {
		return English.otherYear(t)
	}
	return p.otherYear(t)
}

// RecallPhrase picks the recall wording by who sent the recalled message.
func (p Phrases) RecallPhrase(senderID, self int64) string {
	if senderID == self {
		return p.RecalledBySelf
	}
	return p.RecalledByPartner
}
