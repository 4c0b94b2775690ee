package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aquascene/waitlist/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateEmail is returned by Append together with the entry already
// stored for the email.
var ErrDuplicateEmail = errors.New("email already on the waitlist")

// Ledger is the append-only in-memory waitlist. Entries are lost on restart.
type Ledger struct {
	mu      sync.RWMutex
	entries []*entity.WaitlistEntry
	byEmail map[string]*entity.WaitlistEntry
	now     func() time.Time
	newID   func() string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byEmail: make(map[string]*entity.WaitlistEntry),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithClock replaces the time source, used by tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Append stores a new entry for the submission and assigns the next position.
// The duplicate check and position assignment happen under one lock.
func (l *Ledger) Append(_ context.Context, s *entity.Submission) (*entity.WaitlistEntry, error) {
	key := normalizeEmail(s.Email)

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.byEmail[key]; ok {
		return existing.Clone(), ErrDuplicateEmail
	}

	locale := s.Locale
	if locale == "" {
		locale = entity.DefaultLocale
	}

	we := &entity.WaitlistEntry{
		Id:               l.newID(),
		Name:             strings.TrimSpace(s.Name),
		Email:            strings.TrimSpace(s.Email),
		Experience:       s.Experience,
		Interests:        append([]entity.Interest(nil), s.Interests...),
		GDPRConsent:      s.GDPRConsent,
		MarketingConsent: s.MarketingConsent,
		Locale:           locale,
		Position:         len(l.entries) + 1,
		CreatedAt:        l.now().UTC(),
	}

	l.entries = append(l.entries, we)
	l.byEmail[key] = we

	return we.Clone(), nil
}

// FindByEmail looks an entry up ignoring case and surrounding spaces.
func (l *Ledger) FindByEmail(_ context.Context, email string) (*entity.WaitlistEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	we, ok := l.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, false
	}
	return we.Clone(), true
}

// Len returns the number of stored entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Stats aggregates the ledger. recent limits the number of newest entries returned.
func (l *Ledger) Stats(_ context.Context, recent int) *entity.WaitlistStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := &entity.WaitlistStats{
		Total:             len(l.entries),
		Breakdown:         make(map[entity.ExperienceLevel]int, len(entity.ExperienceLevels)),
		InterestBreakdown: make(map[entity.Interest]int, len(entity.Interests)),
		LastUpdated:       l.now().UTC(),
	}
	for _, lvl := range entity.ExperienceLevels {
		st.Breakdown[lvl] = 0
	}
	for _, in := range entity.Interests {
		st.InterestBreakdown[in] = 0
	}

	for _, we := range l.entries {
		st.Breakdown[we.Experience]++
		for _, in := range we.Interests {
			st.InterestBreakdown[in]++
		}
		if we.MarketingConsent {
			st.MarketingConsent++
		}
	}

	st.MarketingConsentRate = decimal.Zero
	if st.Total > 0 {
		st.MarketingConsentRate = decimal.NewFromInt(int64(st.MarketingConsent)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(st.Total))).
			Round(2)
	}

	if recent < 0 {
		recent = 0
	}
	if recent > len(l.entries) {
		recent = len(l.entries)
	}
	st.Recent = make([]entity.WaitlistEntry, 0, recent)
	for i := len(l.entries) - 1; i >= len(l.entries)-recent; i-- {
		st.Recent = append(st.Recent, *l.entries[i].Clone())
	}

	return st
}
