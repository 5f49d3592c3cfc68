package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid post status transition")

	// Quota / loyalty
	ErrDailyLimitReached = errors.New("daily action limit reached")
	ErrInsufficientCoins = errors.New("insufficient coins")

	// Failure kinds crossing component boundaries
	ErrUpstream      = errors.New("upstream failure")
	ErrPlatform      = errors.New("messaging platform error")
	ErrStorage       = errors.New("storage failure")
	ErrConfiguration = errors.New("configuration error")

	// Postgres plumbing
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
