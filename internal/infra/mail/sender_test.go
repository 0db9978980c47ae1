package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (c *captureDialer) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return c.err
}

func newTestSender(d *captureDialer) *EmailSender {
	s := NewEmailSender("localhost", 25, "", "", "crm@example.com", "sales@example.com")
	s.dialer = d
	return s
}

func TestRender_StuckDigestListsLeads(t *testing.T) {
	body, err := render("stuck_digest.html", StuckDigestData{
		OwnerID: "u1",
		Leads: []queue.StuckLeadPayload{
			{Name: "Lisa Park", Stage: "Contacted", DaysStuck: 9, Value: 22000},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, body, "1 lead(s)")
	assert.Contains(t, body, "Lisa Park: Contacted for 9 days (22000)")
}

func TestEmailSender_SendDealWon(t *testing.T) {
	d := &captureDialer{}
	s := newTestSender(d)

	err := s.SendDealWon(context.Background(), queue.NewStageChangedEvent("u1", "l1", "Emily", "Closed Won", time.Now()))
	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"Deal won: Emily"}, d.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"sales@example.com"}, d.sent[0].GetHeader("To"))
}

func TestEmailSender_SMTPFailureIsWrapped(t *testing.T) {
	d := &captureDialer{err: errors.New("connection refused")}
	s := newTestSender(d)

	err := s.SendImportSummary(context.Background(), queue.NewImportedEvent("u1", 3, 1, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
