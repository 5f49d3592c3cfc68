package model

import (
	"strings"
	"time"

	"telegram-channel-bot/internal/domain"

	"github.com/google/uuid"
)

// ProblemReport is an append-only user complaint.
type ProblemReport struct {
	ID        string
	UserID    string
	Text      string
	Category  string
	CreatedAt time.Time
}

func NewProblemReport(userID, text, category string) (*ProblemReport, error) {
	text = strings.TrimSpace(text)
	if userID == "" || text == "" {
		return nil, domain.ErrInvalidArgument
	}
	if category == "" {
		category = "general"
	}
	return &ProblemReport{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Category:  category,
		CreatedAt: time.Now(),
	}, nil
}
