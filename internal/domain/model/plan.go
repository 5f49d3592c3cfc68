package model

import (
	"strings"
	"time"

	"telegram-channel-bot/internal/domain"
)

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanWeekly  Plan = "weekly"
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

var planDays = map[Plan]int{
	PlanFree:    0,
	PlanWeekly:  7,
	PlanMonthly: 30,
	PlanYearly:  365,
}

// ParsePlan normalizes s into a known Plan.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := planDays[p]; !ok {
		return "", domain.ErrInvalidArgument
	}
	return p, nil
}

// DurationDays returns the premium days the plan grants; free grants none.
func (p Plan) DurationDays() int { return planDays[p] }

func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays()) * 24 * time.Hour
}

func (p Plan) IsPaid() bool { return p.DurationDays() > 0 }
