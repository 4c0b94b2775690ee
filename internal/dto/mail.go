package dto

import (
	"strings"
	"time"

	"github.com/aquascene/waitlist/internal/entity"
)

// WelcomeEmail is the data of the welcome template sent to the submitter.
type WelcomeEmail struct {
	Preheader string
	Name      string
	Position  int
	Interests []string
}

// SignupNotification is the data of the operator notification template.
type SignupNotification struct {
	Name             string
	Email            string
	Experience       string
	Interests        string
	MarketingConsent string
	Position         int
	ClientIP         string
	Timestamp        string
}

func WaitlistEntryToWelcomeEmail(we *entity.WaitlistEntry) *WelcomeEmail {
	interests := make([]string, 0, len(we.Interests))
	for _, in := range we.Interests {
		interests = append(interests, string(in))
	}
	return &WelcomeEmail{
		Preheader: "YOU ARE ON THE AQUASCENE WAITLIST",
		Name:      we.Name,
		Position:  we.Position,
		Interests: interests,
	}
}

func WaitlistEntryToSignupNotification(we *entity.WaitlistEntry, clientIP string, now time.Time) *SignupNotification {
	interests := "None specified"
	if len(we.Interests) > 0 {
		parts := make([]string, 0, len(we.Interests))
		for _, in := range we.Interests {
			parts = append(parts, string(in))
		}
		interests = strings.Join(parts, ", ")
	}
	consent := "No"
	if we.MarketingConsent {
		consent = "Yes"
	}
	return &SignupNotification{
		Name:             we.Name,
		Email:            we.Email,
		Experience:       string(we.Experience),
		Interests:        interests,
		MarketingConsent: consent,
		Position:         we.Position,
		ClientIP:         clientIP,
		Timestamp:        now.UTC().Format(time.RFC3339),
	}
}
