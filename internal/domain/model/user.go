package model

import (
	"time"

	"telegram-channel-bot/internal/domain"

	"github.com/google/uuid"
)

// DefaultDailyLimit applies when no quota.default_daily_limit is configured.
const DefaultDailyLimit = 5

// User is a domain entity representing a Telegram user of the bot.
// Premium state is derived from PremiumUntil on every check, never stored as a flag.
type User struct {
	ID           string
	TelegramID   int64
	LanguageCode string
	Categories   []int64
	DailyLimit   int
	PremiumUntil *time.Time
	InviteCount  int
	Coins        int
	RegisteredAt time.Time
}

func NewUser(id string, tgID int64, lang string, dailyLimit int) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if lang == "" {
		lang = "en"
	}
	if dailyLimit < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		TelegramID:   tgID,
		LanguageCode: lang,
		DailyLimit:   dailyLimit,
		RegisteredAt: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// IsPremium reports whether PremiumUntil is set and strictly after now.
func (u *User) IsPremium(now time.Time) bool {
	return u != nil && u.PremiumUntil != nil && u.PremiumUntil.After(now)
}

// HasCategory reports whether the user selected the category.
func (u *User) HasCategory(id int64) bool {
	for _, c := range u.Categories {
		if c == id {
			return true
		}
	}
	return false
}

// SelectCategory adds id to the selection once.
func (u *User) SelectCategory(id int64) {
	if !u.HasCategory(id) {
		u.Categories = append(u.Categories, id)
	}
}

func (u *User) AddInvite() { u.InviteCount++ }

func (u *User) AddCoins(n int) error {
	if n < 0 {
		return domain.ErrInvalidArgument
	}
	u.Coins += n
	return nil
}

// RedeemCoins is the only operation that lowers the coin balance.
func (u *User) RedeemCoins(n int) error {
	if n < 0 {
		return domain.ErrInvalidArgument
	}
	if n > u.Coins {
		return domain.ErrInsufficientCoins
	}
	u.Coins -= n
	return nil
}
