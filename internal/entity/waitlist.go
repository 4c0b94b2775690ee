package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExperienceLevel is the custom type to enforce enum-like behavior
type ExperienceLevel string

const (
	Beginner     ExperienceLevel = "beginner"
	Intermediate ExperienceLevel = "intermediate"
	Advanced     ExperienceLevel = "advanced"
	Professional ExperienceLevel = "professional"
)

// ExperienceLevels lists levels in the order they are reported.
var ExperienceLevels = []ExperienceLevel{Beginner, Intermediate, Advanced, Professional}

// ValidExperienceLevels is a set of valid experience levels
var ValidExperienceLevels = map[ExperienceLevel]bool{
	Beginner:     true,
	Intermediate: true,
	Advanced:     true,
	Professional: true,
}

func IsValidExperienceLevel(e string) bool {
	return ValidExperienceLevels[ExperienceLevel(e)]
}

// Interest is a predefined interest tag offered on the signup form.
type Interest string

const (
	Interest3DDesign     Interest = "3d_design"
	InterestCalculations Interest = "calculations"
	InterestCommunity    Interest = "community"
	InterestMobileApp    Interest = "mobile_app"
	InterestAIAssistant  Interest = "ai_assistant"
)

var Interests = []Interest{
	Interest3DDesign,
	InterestCalculations,
	InterestCommunity,
	InterestMobileApp,
	InterestAIAssistant,
}

var validInterests = map[Interest]bool{
	Interest3DDesign:     true,
	InterestCalculations: true,
	InterestCommunity:    true,
	InterestMobileApp:    true,
	InterestAIAssistant:  true,
}

func IsValidInterest(i string) bool {
	return validInterests[Interest(i)]
}

// Submission is a single signup attempt after the request body has been decoded.
type Submission struct {
	Name             string
	Email            string
	Experience       ExperienceLevel
	Interests        []Interest
	GDPRConsent      bool
	MarketingConsent bool
	Honeypot         string
	Locale           Locale
	ClientID         string
}

// WaitlistEntry is an accepted submission. Entries are immutable once stored.
type WaitlistEntry struct {
	Id               string          `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Experience       ExperienceLevel `json:"experience"`
	Interests        []Interest      `json:"interests"`
	GDPRConsent      bool            `json:"gdprConsent"`
	MarketingConsent bool            `json:"marketingConsent"`
	Locale           Locale          `json:"locale"`
	Position         int             `json:"position"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Clone returns a deep copy so callers can't mutate ledger state.
func (we *WaitlistEntry) Clone() *WaitlistEntry {
	c := *we
	c.Interests = append([]Interest(nil), we.Interests...)
	return &c
}

// WaitlistStats is the read-only aggregate served to admins.
type WaitlistStats struct {
	Total                int
	Breakdown            map[ExperienceLevel]int
	InterestBreakdown    map[Interest]int
	MarketingConsent     int
	MarketingConsentRate decimal.Decimal
	Recent               []WaitlistEntry
	LastUpdated          time.Time
}
