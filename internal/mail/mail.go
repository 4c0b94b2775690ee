package mail

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aquascene/waitlist/internal/dependency"
	"github.com/aquascene/waitlist/internal/entity"
	gerr "github.com/aquascene/waitlist/internal/errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/time/rate"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

const (
	defaultWorkers     = 2
	defaultQueueSize   = 256
	defaultSendRate    = 5
	defaultSendTimeout = 15 * time.Second
)

type Config struct {
	APIKey      string        `mapstructure:"sendgrid_api_key"`
	FromEmail   string        `mapstructure:"from_email"`
	FromName    string        `mapstructure:"from_email_name"`
	NotifyEmail string        `mapstructure:"notify_email"`
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	SendRate    float64       `mapstructure:"send_rate"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

func (c *Config) withDefaults() Config {
	cc := *c
	if cc.Workers <= 0 {
		cc.Workers = defaultWorkers
	}
	if cc.QueueSize <= 0 {
		cc.QueueSize = defaultQueueSize
	}
	if cc.SendRate <= 0 {
		cc.SendRate = defaultSendRate
	}
	if cc.SendTimeout <= 0 {
		cc.SendTimeout = defaultSendTimeout
	}
	if cc.FromName == "" {
		cc.FromName = "Aquascene"
	}
	return cc
}

type job struct {
	entry    *entity.WaitlistEntry
	clientIP string
}

// Mailer sends the welcome and operator emails through SendGrid. Deliveries
// are queued by Dispatch and processed by the worker started with Start.
type Mailer struct {
	cli       dependency.Sender
	c         Config
	from      *mail.Email
	templates map[templateName]*template.Template
	limiter   *rate.Limiter
	queue     chan job
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a mailer backed by the SendGrid API. An incomplete config is not
// an error here: Ready reports it on every request instead.
func New(c *Config) (*Mailer, error) {
	var cli dependency.Sender
	if c.APIKey != "" {
		cli = sendgrid.NewSendClient(c.APIKey)
	}
	return NewWithSender(c, cli)
}

// NewWithSender creates a mailer using the given provider client.
func NewWithSender(c *Config, cli dependency.Sender) (*Mailer, error) {
	cc := c.withDefaults()

	m := &Mailer{
		cli:       cli,
		c:         cc,
		from:      mail.NewEmail(cc.FromName, cc.FromEmail),
		templates: make(map[templateName]*template.Template),
		limiter:   rate.NewLimiter(rate.Limit(cc.SendRate), 1),
		queue:     make(chan job, cc.QueueSize),
		now:       time.Now,
	}

	if err := m.parseTemplates(); err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}

	return m, nil
}

// Ready reports missing provider settings.
func (m *Mailer) Ready() error {
	var missing []string
	if m.c.APIKey == "" || m.cli == nil {
		missing = append(missing, "sendgrid_api_key")
	}
	if m.c.FromEmail == "" {
		missing = append(missing, "from_email")
	}
	if m.c.NotifyEmail == "" {
		missing = append(missing, "notify_email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("mailer is missing %s: %w", strings.Join(missing, ", "), gerr.ErrConfiguration)
	}
	return nil
}

func (m *Mailer) parseTemplates() error {
	templateDir := "templates"

	dirEntries, err := templatesFS.ReadDir(templateDir)
	if err != nil {
		return fmt.Errorf("error reading template directory: %w", err)
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}

		tmpl, err := template.ParseFS(templatesFS, path.Join(templateDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("error parsing template '%s': %w", entry.Name(), err)
		}

		m.templates[templateName(entry.Name())] = tmpl
	}

	for tn := range templateSubjects {
		if _, ok := m.templates[tn]; !ok {
			return fmt.Errorf("template not found: %v", tn)
		}
	}

	return nil
}

func (m *Mailer) buildMessage(to *mail.Email, subject string, tn templateName, refID string, data any) (*mail.SGMailV3, error) {
	tmpl, ok := m.templates[tn]
	if !ok {
		return nil, fmt.Errorf("template not found: %v", tn)
	}

	body := &strings.Builder{}
	if err := tmpl.Execute(body, data); err != nil {
		return nil, fmt.Errorf("error executing template: %w", err)
	}

	msg := mail.NewSingleEmail(m.from, subject, to, "", body.String())
	msg.SetHeader("X-Entity-Ref-ID", refID)
	return msg, nil
}

func (m *Mailer) send(ctx context.Context, msg *mail.SGMailV3) error {
	if m.cli == nil {
		return fmt.Errorf("can't send mail: %w", gerr.ErrConfiguration)
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("can't wait for send slot: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.c.SendTimeout)
	defer cancel()

	resp, err := m.cli.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	if resp == nil {
		return errors.New("error sending email: empty response")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return gerr.MailApiLimitReached
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("error sending email bad status code: %s, status code: %d", resp.Body, resp.StatusCode)
	}

	return nil
}
