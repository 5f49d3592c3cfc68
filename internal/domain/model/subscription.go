package model

import (
	"time"

	"telegram-channel-bot/internal/domain"

	"github.com/google/uuid"
)

// Subscription is the single active plan row of a user.
type Subscription struct {
	ID        string
	UserID    string
	Plan      Plan
	StartedAt time.Time
	ExpiresAt *time.Time // nil for the free plan
}

func NewSubscription(userID string, plan Plan, now time.Time, expiresAt *time.Time) (*Subscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := ParsePlan(string(plan)); err != nil {
		return nil, err
	}
	return &Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		Plan:      plan,
		StartedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.ExpiresAt == nil {
		return s.Plan == PlanFree
	}
	return s.ExpiresAt.After(now)
}
