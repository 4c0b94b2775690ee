package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aquascene/waitlist/internal/dto"
	"github.com/aquascene/waitlist/internal/entity"
	gerr "github.com/aquascene/waitlist/internal/errors"
	"github.com/aquascene/waitlist/internal/middleware"
	"golang.org/x/text/language"
)

const maxBodyBytes = 16 << 10

var localeMatcher = newLocaleMatcher(entity.Locales)

// newLocaleMatcher builds a matcher whose indexes are indexes into locales.
// The first locale is the fallback.
func newLocaleMatcher(locales []entity.Locale) language.Matcher {
	tags := make([]language.Tag, 0, len(locales))
	for _, l := range locales {
		tags = append(tags, language.MustParse(string(l)))
	}
	return language.NewMatcher(tags)
}

// negotiateLocale picks a site locale from an Accept-Language header.
func negotiateLocale(acceptLanguage string) entity.Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return entity.DefaultLocale
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No || idx >= len(entity.Locales) {
		return entity.DefaultLocale
	}
	return entity.Locales[idx]
}

func (s *Server) submitWaitlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &dto.WaitlistRequest{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req); err != nil {
		slog.Default().WarnContext(ctx, "can't decode waitlist request",
			slog.String("err", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, dto.WaitlistResponse{Message: "Invalid request body"})
		return
	}
	if req.Locale == "" {
		req.Locale = string(negotiateLocale(r.Header.Get("Accept-Language")))
	}

	res, err := s.waitlist.Submit(ctx, req, middleware.GetClientIP(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WaitlistResponse{
		Success:  true,
		Position: res.Position,
		Message:  "Successfully joined the waitlist",
	})
}

func (s *Server) waitlistStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := r.URL.Query().Get("key")
	if key == "" {
		key = r.Header.Get("X-Admin-Key")
	}

	st, err := s.waitlist.Stats(ctx, key, middleware.GetClientIP(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WaitlistStatsResponse{
		Success: true,
		Data:    dto.EntityWaitlistStatsToDto(st),
	})
}

func writeError(w http.ResponseWriter, err error) {
	code := gerr.HTTPStatus(err)
	resp := dto.WaitlistResponse{Message: gerr.Message(err)}

	var rle *gerr.RateLimitedError
	if errors.As(err, &rle) {
		retry := int64(rle.Decision.RetryAfter.Seconds())
		resp.RetryAfter = retry
		w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rle.Decision.Limit))
		w.Header().Set("X-RateLimit-Window", strconv.FormatInt(int64(rle.Decision.Window.Seconds()), 10))
	}

	var de *gerr.DuplicateError
	if errors.As(err, &de) {
		resp.Position = de.Position
	}

	resp.Errors = gerr.FieldViolations(err)

	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("can't encode response",
			slog.String("err", err.Error()),
		)
	}
}
