package usecase

import (
	"sort"
	"time"

	"telegram-channel-bot/internal/domain/model"
)

// sortPosts enforces (scheduled_time, id) order regardless of the store.
func sortPosts(ps []*model.Post) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
}

// filterDue drops anything the store returned that is not pending and due at now.
func filterDue(ps []*model.Post, now time.Time) []*model.Post {
	out := ps[:0]
	for _, p := range ps {
		if p.IsDue(now) {
			out = append(out, p)
		}
	}
	return out
}
