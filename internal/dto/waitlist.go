package dto

import (
	"strings"
	"time"

	"github.com/aquascene/waitlist/internal/entity"
)

// WaitlistRequest is the POST /api/waitlist body.
type WaitlistRequest struct {
	Name             string   `json:"name" validate:"required,max=100"`
	Email            string   `json:"email" validate:"required,max=254,mailbox"`
	Experience       string   `json:"experience" validate:"required,experience"`
	Interests        []string `json:"interests" validate:"max=5,unique,dive,interest"`
	GDPRConsent      bool     `json:"gdprConsent"`
	MarketingConsent bool     `json:"marketingConsent"`
	Honeypot         string   `json:"honeypot"`
	Locale           string   `json:"locale,omitempty" validate:"omitempty,locale"`
}

// Normalize trims user supplied strings in place.
func (r *WaitlistRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Experience = strings.ToLower(strings.TrimSpace(r.Experience))
	r.Locale = strings.ToLower(strings.TrimSpace(r.Locale))
	for i, in := range r.Interests {
		r.Interests[i] = strings.TrimSpace(in)
	}
}

// WaitlistRequestToSubmission converts a validated request.
func WaitlistRequestToSubmission(r *WaitlistRequest, clientID string) *entity.Submission {
	interests := make([]entity.Interest, 0, len(r.Interests))
	for _, in := range r.Interests {
		interests = append(interests, entity.Interest(in))
	}
	return &entity.Submission{
		Name:             r.Name,
		Email:            r.Email,
		Experience:       entity.ExperienceLevel(r.Experience),
		Interests:        interests,
		GDPRConsent:      r.GDPRConsent,
		MarketingConsent: r.MarketingConsent,
		Honeypot:         r.Honeypot,
		Locale:           entity.Locale(r.Locale),
		ClientID:         clientID,
	}
}

// WaitlistResponse is returned by POST /api/waitlist and by GET on failure.
type WaitlistResponse struct {
	Success    bool              `json:"success"`
	Position   int               `json:"position,omitempty"`
	Message    string            `json:"message,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	RetryAfter int64             `json:"retryAfter,omitempty"`
}

// WaitlistStatsResponse is returned by GET /api/waitlist.
type WaitlistStatsResponse struct {
	Success bool          `json:"success"`
	Data    WaitlistStats `json:"data"`
}

type WaitlistStats struct {
	Total                int            `json:"total"`
	Recent               []RecentEntry  `json:"recent"`
	Breakdown            map[string]int `json:"breakdown"`
	Interests            map[string]int `json:"interests"`
	MarketingConsent     int            `json:"marketingConsent"`
	MarketingConsentRate string         `json:"marketingConsentRate"`
	LastUpdated          string         `json:"lastUpdated"`
}

// RecentEntry omits the email, the admin view only needs a glance.
type RecentEntry struct {
	Name       string `json:"name"`
	Experience string `json:"experience"`
	Position   int    `json:"position"`
	CreatedAt  string `json:"createdAt"`
}

func EntityWaitlistStatsToDto(st *entity.WaitlistStats) WaitlistStats {
	out := WaitlistStats{
		Total:                st.Total,
		Recent:               make([]RecentEntry, 0, len(st.Recent)),
		Breakdown:            make(map[string]int, len(st.Breakdown)),
		Interests:            make(map[string]int, len(st.InterestBreakdown)),
		MarketingConsent:     st.MarketingConsent,
		MarketingConsentRate: st.MarketingConsentRate.StringFixed(2),
		LastUpdated:          st.LastUpdated.Format(time.RFC3339),
	}
	for lvl, n := range st.Breakdown {
		out.Breakdown[string(lvl)] = n
	}
	for in, n := range st.InterestBreakdown {
		out.Interests[string(in)] = n
	}
	for _, we := range st.Recent {
		out.Recent = append(out.Recent, RecentEntry{
			Name:       we.Name,
			Experience: string(we.Experience),
			Position:   we.Position,
			CreatedAt:  we.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
