//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	repo := NewUserRepo(testPool)
	ctx := context.Background()

	t.Run("should perform full save and find cycle", func(t *testing.T) {
		cleanup(t)

		u, err := model.NewUser("", 123456789, "uz", 5)
		if err != nil {
			t.Fatalf("model.NewUser() failed: %v", err)
		}
		if err := repo.Save(ctx, nil, u); err != nil {
			t.Fatalf("Save: %v", err)
		}

		found, err := repo.FindByTelegramID(ctx, nil, 123456789)
		if err != nil {
			t.Fatalf("FindByTelegramID: %v", err)
		}
		if found.ID != u.ID || found.LanguageCode != "uz" || found.PremiumUntil != nil {
			t.Errorf("unexpected user %+v", found)
		}

		until := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Microsecond)
		found.PremiumUntil = &until
		found.SelectCategory(3)
		_ = found.AddCoins(7)
		if err := repo.Save(ctx, nil, found); err != nil {
			t.Fatalf("update: %v", err)
		}

		updated, err := repo.FindByID(ctx, nil, u.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if updated.PremiumUntil == nil || !updated.PremiumUntil.Equal(until) {
			t.Errorf("expected premium until %v, got %v", until, updated.PremiumUntil)
		}
		if !updated.HasCategory(3) || updated.Coins != 7 {
			t.Errorf("unexpected user %+v", updated)
		}
	})

	t.Run("should return ErrNotFound for unknown users", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByTelegramID(ctx, nil, 42); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should reject a duplicate telegram id", func(t *testing.T) {
		cleanup(t)
		a, _ := model.NewUser("", 777, "en", 5)
		b, _ := model.NewUser("", 777, "en", 5)
		if err := repo.Save(ctx, nil, a); err != nil {
			t.Fatalf("Save a: %v", err)
		}
		if err := repo.Save(ctx, nil, b); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("should count users", func(t *testing.T) {
		cleanup(t)
		for _, id := range []int64{111, 222} {
			u, _ := model.NewUser("", id, "en", 5)
			if err := repo.Save(ctx, nil, u); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}
		n, err := repo.CountUsers(ctx, nil)
		if err != nil || n != 2 {
			t.Errorf("expected 2 users, got %d (%v)", n, err)
		}
	})
}
