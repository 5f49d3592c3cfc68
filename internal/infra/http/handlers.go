package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type postRequest struct {
	CategoryID    int64     `json:"category_id"`
	ChannelID     string    `json:"channel_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Content       string    `json:"content"`
}

type postResponse struct {
	ID            string    `json:"id"`
	CategoryID    int64     `json:"category_id"`
	ChannelID     string    `json:"channel_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Content       string    `json:"content"`
	Status        string    `json:"status"`
	Views         int       `json:"views"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:            p.ID,
		CategoryID:    p.CategoryID,
		ChannelID:     p.ChannelID,
		ScheduledTime: p.ScheduledTime.UTC(),
		Content:       p.Content,
		Status:        string(p.Status),
		Views:         p.Views,
	}
}

type premiumRequest struct {
	Days int `json:"days"`
}

type premiumResponse struct {
	TelegramID   int64     `json:"telegram_id"`
	PremiumUntil time.Time `json:"premium_until"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSchedulePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.deps.Dispatch.SchedulePost(r.Context(), req.CategoryID, req.ChannelID, req.ScheduledTime, req.Content)
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(p))
}

func (s *Server) handleListDue(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be RFC3339")
			return
		}
		now = t
	}
	posts, err := s.deps.Dispatch.ListDue(r.Context(), now)
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGrantPremium(w http.ResponseWriter, r *http.Request) {
	tgID, err := strconv.ParseInt(chi.URLParam(r, "tgID"), 10, 64)
	if err != nil || tgID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return
	}
	var req premiumRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.deps.Subs.GrantPremiumByTelegramID(r.Context(), tgID, req.Days, s.now())
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}
	resp := premiumResponse{TelegramID: u.TelegramID}
	if u.PremiumUntil != nil {
		resp.PremiumUntil = u.PremiumUntil.UTC()
	}
	writeJSON(w, http.StatusOK, resp)
}

type planRequest struct {
	Plan string `json:"plan"`
}

type planResponse struct {
	TelegramID   int64      `json:"telegram_id"`
	Plan         string     `json:"plan"`
	PremiumUntil *time.Time `json:"premium_until,omitempty"`
}

func (s *Server) handleActivatePlan(w http.ResponseWriter, r *http.Request) {
	tgID, err := strconv.ParseInt(chi.URLParam(r, "tgID"), 10, 64)
	if err != nil || tgID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return
	}
	var req planRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := model.ParsePlan(req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown plan")
		return
	}
	sub, u, err := s.deps.Subs.ActivatePlanByTelegramID(r.Context(), tgID, plan, s.now())
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}
	resp := planResponse{TelegramID: u.TelegramID, Plan: string(sub.Plan)}
	if u.PremiumUntil != nil {
		until := u.PremiumUntil.UTC()
		resp.PremiumUntil = &until
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Stats.Totals(r.Context())
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) writeUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.log.Error().Err(err).Msg("admin api request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
