package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/domain/ports/repository"
	"telegram-channel-bot/internal/infra/logging"
	"telegram-channel-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// TickReport summarizes one DispatchDue pass.
type TickReport struct {
	Due     int
	Sent    int
	Failed  int
	Aborted int // storage failures; the post stays for the next tick when still pending
}

var _ DispatchUseCase = (*dispatchUC)(nil)

type DispatchUseCase interface {
	DispatchDue(ctx context.Context, now time.Time) (TickReport, error)
	SchedulePost(ctx context.Context, categoryID int64, channelID string, at time.Time, content string) (*model.Post, error)
	ListDue(ctx context.Context, now time.Time) ([]*model.Post, error)
}

type dispatchUC struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	content    ContentProvider
	messenger  adapter.Messenger
	lang       string
	timeout    time.Duration
	log        *zerolog.Logger
}

// NewDispatchUseCase wires the dispatcher. lang selects the fallback text for
// materialized posts; timeout bounds every messenger call.
func NewDispatchUseCase(
	posts repository.PostRepository,
	categories repository.CategoryRepository,
	content ContentProvider,
	messenger adapter.Messenger,
	lang string,
	timeout time.Duration,
	logger *zerolog.Logger,
) *dispatchUC {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	l := logger.With().Str("component", "Dispatcher").Logger()
	return &dispatchUC{
		posts:      posts,
		categories: categories,
		content:    content,
		messenger:  messenger,
		lang:       lang,
		timeout:    timeout,
		log:        &l,
	}
}

// DispatchDue makes exactly one delivery attempt for each due post, in
// (scheduled_time, id) order. A failing post never stops the rest of the tick.
func (d *dispatchUC) DispatchDue(ctx context.Context, now time.Time) (TickReport, error) {
	defer logging.TraceDuration(d.log, "DispatchUC.DispatchDue")()
	start := time.Now()
	defer func() { metrics.ObserveSchedulerTick(time.Since(start)) }()

	var rep TickReport
	due, err := d.posts.ListDue(ctx, repository.NoTX, now)
	if err != nil {
		return rep, storageErr("list due posts", err)
	}
	due = filterDue(due, now)
	sortPosts(due)
	rep.Due = len(due)

	for _, p := range due {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		switch d.dispatchOne(ctx, p) {
		case model.PostStatusSent:
			rep.Sent++
			metrics.IncPostDispatched("sent")
		case model.PostStatusFailed:
			rep.Failed++
			metrics.IncPostDispatched("failed")
		default:
			rep.Aborted++
			metrics.IncPostDispatched("aborted")
		}
	}

	if rep.Due > 0 {
		d.log.Info().Int("due", rep.Due).Int("sent", rep.Sent).Int("failed", rep.Failed).Int("aborted", rep.Aborted).Msg("dispatch tick finished")
	}
	return rep, nil
}

// dispatchOne returns the terminal status reached, or pending when a storage
// failure aborted the post.
func (d *dispatchUC) dispatchOne(ctx context.Context, p *model.Post) model.PostStatus {
	ctx = logging.WithPostID(ctx, p.ID)
	log := logging.With(ctx, d.log).With().Str("channel_id", p.ChannelID).Logger()

	if strings.TrimSpace(p.ChannelID) == "" {
		log.Error().Err(domain.ErrConfiguration).Msg("post has no channel id")
		return d.finish(ctx, &log, p, false, 0)
	}

	if !p.HasContent() {
		p.Content = d.content.ForCategory(ctx, p.CategoryID, d.lang)
		if err := d.posts.Save(ctx, repository.NoTX, p); err != nil {
			log.Error().Err(err).Msg("persist generated content failed")
			return model.PostStatusPending
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	_, err := d.messenger.SendMessage(sendCtx, p.ChannelID, p.Content)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("post delivery failed")
		return d.finish(ctx, &log, p, false, 0)
	}

	// Member count stands in for views; Telegram exposes no per-post counter here.
	countCtx, cancel := context.WithTimeout(ctx, d.timeout)
	views, err := d.messenger.GetChannelMemberCount(countCtx, p.ChannelID)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("member count unavailable, recording zero views")
		views = 0
	}
	return d.finish(ctx, &log, p, true, views)
}

// finish records the terminal status and reaps the post.
func (d *dispatchUC) finish(ctx context.Context, log *zerolog.Logger, p *model.Post, sent bool, views int) model.PostStatus {
	var err error
	if sent {
		err = p.MarkSent(views)
	} else {
		err = p.MarkFailed()
	}
	if err != nil {
		log.Error().Err(err).Str("status", string(p.Status)).Msg("unexpected post state")
		return model.PostStatusPending
	}

	if err := d.posts.Save(ctx, repository.NoTX, p); err != nil {
		log.Error().Err(err).Msg("persist post status failed")
		// A still-pending row would be sent again next tick, so reap it anyway.
		if err := d.posts.Delete(ctx, repository.NoTX, p.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Msg("delete post failed")
			return model.PostStatusPending
		}
		return p.Status
	}
	if err := d.posts.Delete(ctx, repository.NoTX, p.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		// Status is already terminal, so the post will not be listed again.
		log.Error().Err(err).Msg("delete post failed")
	}
	log.Debug().Str("status", string(p.Status)).Int("views", p.Views).Msg("post finished")
	return p.Status
}

func (d *dispatchUC) SchedulePost(ctx context.Context, categoryID int64, channelID string, at time.Time, content string) (*model.Post, error) {
	defer logging.TraceDuration(d.log, "DispatchUC.SchedulePost")()
	p, err := model.NewPost(categoryID, channelID, at, content)
	if err != nil {
		return nil, err
	}
	if !p.HasContent() {
		if _, err := d.categories.FindByID(ctx, repository.NoTX, categoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown category %d", domain.ErrInvalidArgument, categoryID)
			}
			return nil, storageErr("find category", err)
		}
	}
	if err := d.posts.Save(ctx, repository.NoTX, p); err != nil {
		return nil, storageErr("save post", err)
	}
	d.log.Info().Str("post_id", p.ID).Str("channel_id", p.ChannelID).Time("at", p.ScheduledTime).Msg("post scheduled")
	return p, nil
}

func (d *dispatchUC) ListDue(ctx context.Context, now time.Time) ([]*model.Post, error) {
	defer logging.TraceDuration(d.log, "DispatchUC.ListDue")()
	due, err := d.posts.ListDue(ctx, repository.NoTX, now)
	if err != nil {
		return nil, storageErr("list due posts", err)
	}
	due = filterDue(due, now)
	sortPosts(due)
	return due, nil
}
