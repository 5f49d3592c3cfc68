//go:build !integration

package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"telegram-channel-bot/internal/domain"
)

func TestGetExecutor(t *testing.T) {
	t.Run("should reject nil tx without a pool", func(t *testing.T) {
		if _, err := getExecutor(nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should reject unknown execution contexts", func(t *testing.T) {
		if _, err := getExecutor(nil, "not-a-tx"); !errors.Is(err, domain.ErrInvalidExecContext) {
			t.Errorf("expected ErrInvalidExecContext, got %v", err)
		}
	})
}

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows is not found", pgx.ErrNoRows, domain.ErrNotFound},
		{"unique violation is already exists", &pgconn.PgError{Code: "23505", ConstraintName: "users_telegram_id_key"}, domain.ErrAlreadyExists},
		{"other driver errors are storage failures", &pgconn.PgError{Code: "08006"}, domain.ErrStorage},
		{"plain errors are storage failures", errors.New("conn reset"), domain.ErrStorage},
		{"exec context errors pass through", domain.ErrInvalidExecContext, domain.ErrInvalidExecContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErr("op", tt.in); !errors.Is(got, tt.want) {
				t.Errorf("mapErr() = %v, want %v", got, tt.want)
			}
		})
	}
	if mapErr("op", nil) != nil {
		t.Error("nil must stay nil")
	}
}
