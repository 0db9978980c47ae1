package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type messageSender interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

func render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return body.String(), nil
}

func (s *EmailSender) send(subject, tmpl string, data any) error {
	body, err := render(tmpl, data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send smtp mail: %w", err)
	}
	return nil
}

func (s *EmailSender) SendImportSummary(_ context.Context, ev queue.LeadEvent) error {
	data := ImportSummaryData{OwnerID: ev.OwnerID, Inserted: ev.Inserted, Rejected: ev.Rejected}
	return s.send(fmt.Sprintf("Lead import: %d imported", ev.Inserted), "import_summary.html", data)
}

func (s *EmailSender) SendDealWon(_ context.Context, ev queue.LeadEvent) error {
	data := DealWonData{OwnerID: ev.OwnerID, LeadName: ev.LeadName, LeadID: ev.LeadID}
	return s.send(fmt.Sprintf("Deal won: %s", ev.LeadName), "deal_won.html", data)
}

func (s *EmailSender) SendStuckDigest(_ context.Context, ev queue.LeadEvent) error {
	data := StuckDigestData{OwnerID: ev.OwnerID, Leads: ev.StuckLeads}
	return s.send(fmt.Sprintf("%d stuck leads need attention", len(ev.StuckLeads)), "stuck_digest.html", data)
}
