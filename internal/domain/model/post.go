package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"telegram-channel-bot/internal/domain"

	"github.com/oklog/ulid/v2"
)

// MaxContentRunes is Telegram's limit for one text message.
const MaxContentRunes = 4096

type PostStatus string

const (
	PostStatusPending PostStatus = "pending"
	PostStatusSent    PostStatus = "sent"
	PostStatusFailed  PostStatus = "failed"
)

// Post is one scheduled publication. Content may stay empty until dispatch,
// when it is materialized from the content source.
type Post struct {
	ID            string // ULID, sorts by creation time
	Content       string
	CategoryID    int64
	ChannelID     string // numeric chat id or @username
	ScheduledTime time.Time
	Views         int // channel member count at send time, an approximation
	Status        PostStatus
}

func NewPost(categoryID int64, channelID string, at time.Time, content string) (*Post, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" || at.IsZero() || utf8.RuneCountInString(content) > MaxContentRunes {
		return nil, domain.ErrInvalidArgument
	}
	return &Post{
		ID:            ulid.Make().String(),
		Content:       content,
		CategoryID:    categoryID,
		ChannelID:     channelID,
		ScheduledTime: at,
		Status:        PostStatusPending,
	}, nil
}

// TruncateContent cuts s to MaxContentRunes without splitting a rune.
func TruncateContent(s string) string {
	if utf8.RuneCountInString(s) <= MaxContentRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxContentRunes {
			return s[:i]
		}
		n++
	}
	return s
}

func (p *Post) IsPending() bool { return p.Status == PostStatusPending }

// IsDue reports whether the post is pending and scheduled at or before now.
func (p *Post) IsDue(now time.Time) bool {
	return p.IsPending() && !p.ScheduledTime.After(now)
}

func (p *Post) HasContent() bool { return strings.TrimSpace(p.Content) != "" }

// MarkSent records a successful delivery. Negative view counts are clamped to zero.
func (p *Post) MarkSent(views int) error {
	if !p.IsPending() {
		return domain.ErrInvalidTransition
	}
	if views < 0 {
		views = 0
	}
	p.Views = views
	p.Status = PostStatusSent
	return nil
}

func (p *Post) MarkFailed() error {
	if !p.IsPending() {
		return domain.ErrInvalidTransition
	}
	p.Status = PostStatusFailed
	return nil
}

// Less orders posts by scheduled time, then by id.
func (p *Post) Less(o *Post) bool {
	if !p.ScheduledTime.Equal(o.ScheduledTime) {
		return p.ScheduledTime.Before(o.ScheduledTime)
	}
	return p.ID < o.ID
}
