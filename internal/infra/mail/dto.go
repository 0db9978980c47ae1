package mail

import "github.com/xavierca1/ligue-crm/internal/infra/queue"

type ImportSummaryData struct {
	OwnerID  string
	Inserted int
	Rejected int
}

type DealWonData struct {
	OwnerID  string
	LeadName string
	LeadID   string
}

type StuckDigestData struct {
	OwnerID string
	Leads   []queue.StuckLeadPayload
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string

	dialer messageSender
}
