package usecase

import (
	"context"
	"html"
	"strings"
	"time"

	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/domain/ports/repository"
	"telegram-channel-bot/internal/infra/metrics"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// Translator resolves localized strings.
type Translator interface {
	T(lang, key string, args ...interface{}) string
}

// ContentProvider yields publishable text and never fails.
type ContentProvider interface {
	Generate(ctx context.Context, category, subcategory, lang string) string
	// TryGenerate is Generate that also reports whether the text came from
	// the generator (true) or is the fallback (false).
	TryGenerate(ctx context.Context, category, subcategory, lang string) (string, bool)
	ForCategory(ctx context.Context, categoryID int64, lang string) string
}

var _ ContentProvider = (*ContentSource)(nil)

const fallbackKey = "content_fallback"

// ContentSource wraps a text generator. Upstream failures are logged and
// replaced by the localized fallback text.
type ContentSource struct {
	gen        adapter.TextGenerator
	categories repository.CategoryRepository
	tr         Translator
	timeout    time.Duration
	policy     *bluemonday.Policy
	log        *zerolog.Logger
}

func NewContentSource(gen adapter.TextGenerator, categories repository.CategoryRepository, tr Translator, timeout time.Duration, logger *zerolog.Logger) *ContentSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	l := logger.With().Str("component", "ContentSource").Logger()
	return &ContentSource{
		gen:        gen,
		categories: categories,
		tr:         tr,
		timeout:    timeout,
		policy:     bluemonday.StrictPolicy(),
		log:        &l,
	}
}

// Prompt builds the generator prompt for a category pair.
func Prompt(category, subcategory string) string {
	if subcategory == "" {
		return "Generate content for " + category
	}
	return "Generate content for " + category + " - " + subcategory
}

func (c *ContentSource) Generate(ctx context.Context, category, subcategory, lang string) string {
	text, _ := c.TryGenerate(ctx, category, subcategory, lang)
	return text
}

func (c *ContentSource) TryGenerate(ctx context.Context, category, subcategory, lang string) (string, bool) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.gen.Generate(cctx, Prompt(category, subcategory))
	if err != nil {
		c.log.Warn().Err(err).Str("category", category).Str("subcategory", subcategory).Msg("content generation failed, using fallback")
		return c.fallback(lang), false
	}
	text := c.sanitize(out)
	if text == "" {
		c.log.Warn().Str("category", category).Str("subcategory", subcategory).Msg("empty generated content, using fallback")
		return c.fallback(lang), false
	}
	metrics.IncContentGeneration("generated")
	return text, true
}

func (c *ContentSource) ForCategory(ctx context.Context, categoryID int64, lang string) string {
	cat, err := c.categories.FindByID(ctx, repository.NoTX, categoryID)
	if err != nil {
		c.log.Warn().Err(err).Int64("category_id", categoryID).Msg("category lookup failed, using fallback")
		return c.fallback(lang)
	}
	return c.Generate(ctx, cat.Name, cat.FirstSubcategory(), lang)
}

func (c *ContentSource) fallback(lang string) string {
	metrics.IncContentGeneration("fallback")
	return c.tr.T(lang, fallbackKey)
}

// sanitize drops markup; entities are unescaped again since posts are sent as plain text.
// The result fits in one Telegram message.
func (c *ContentSource) sanitize(s string) string {
	s = strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
	return strings.TrimSpace(model.TruncateContent(s))
}
