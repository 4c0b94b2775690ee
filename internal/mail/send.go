package mail

import (
	"context"
	"fmt"

	"github.com/aquascene/waitlist/internal/dto"
	"github.com/aquascene/waitlist/internal/entity"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type templateName string

const (
	WelcomeEN          templateName = "welcome_en.gohtml"
	WelcomeBG          templateName = "welcome_bg.gohtml"
	WelcomeHU          templateName = "welcome_hu.gohtml"
	SignupNotification templateName = "signup_notification.gohtml"
)

var welcomeTemplates = map[entity.Locale]templateName{
	entity.LocaleEnglish:   WelcomeEN,
	entity.LocaleBulgarian: WelcomeBG,
	entity.LocaleHungarian: WelcomeHU,
}

// Define a map for template names to subjects
var templateSubjects = map[templateName]string{
	WelcomeEN:          "Welcome to Aquascene Waitlist!",
	WelcomeBG:          "Добре дошли в листата на чакащите на Aquascene!",
	WelcomeHU:          "Üdvözlünk az Aquascene várólistáján!",
	SignupNotification: "New Waitlist Signup: %s",
}

func welcomeTemplate(l entity.Locale) templateName {
	if tn, ok := welcomeTemplates[l]; ok {
		return tn
	}
	return WelcomeEN
}

// SendWelcome sends the welcome email to the submitter in their locale.
func (m *Mailer) SendWelcome(ctx context.Context, we *entity.WaitlistEntry) error {
	if we.Email == "" {
		return fmt.Errorf("incomplete waitlist entry: %+v", we)
	}
	tn := welcomeTemplate(we.Locale)
	refID := fmt.Sprintf("waitlist-%d", m.now().UnixMilli())

	msg, err := m.buildMessage(mail.NewEmail(we.Name, we.Email), templateSubjects[tn], tn, refID, dto.WaitlistEntryToWelcomeEmail(we))
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

// SendSignupNotification notifies the operator about a new entry.
func (m *Mailer) SendSignupNotification(ctx context.Context, we *entity.WaitlistEntry, clientIP string) error {
	now := m.now()
	refID := fmt.Sprintf("admin-notification-%d", now.UnixMilli())
	subject := fmt.Sprintf(templateSubjects[SignupNotification], we.Name)

	msg, err := m.buildMessage(mail.NewEmail("", m.c.NotifyEmail), subject, SignupNotification, refID, dto.WaitlistEntryToSignupNotification(we, clientIP, now))
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}
