package adapter

import "time"

// FloodGuard admits or denies an inbound message from a user.
// A denial is a normal outcome, not an error.
type FloodGuard interface {
	Admit(userID int64, now time.Time) bool
}
