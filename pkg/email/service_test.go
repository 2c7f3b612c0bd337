package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewService_ConsoleMode(t *testing.T) {
	svc := NewService("from@example.com", "PromoRail", "https://app.promorail.io", "")
	assert.False(t, svc.useSendGrid)
	assert.Equal(t, "from@example.com", svc.fromEmail)
	assert.Equal(t, "PromoRail", svc.fromName)
	assert.Equal(t, "https://app.promorail.io", svc.baseURL)
}

func TestNewService_SendGridMode(t *testing.T) {
	svc := NewService("from@example.com", "PromoRail", "https://app.promorail.io", "SG.test-key")
	assert.True(t, svc.useSendGrid)
	assert.Equal(t, "SG.test-key", svc.sendGridKey)
}

func TestSendAffiliateInviteEmail_ConsoleMode(t *testing.T) {
	svc := NewService("from@example.com", "PromoRail", "https://app.promorail.io", "")

	err := svc.SendAffiliateInviteEmail("invitee@example.com", "John Doe", "Acme Corp")
	assert.NoError(t, err, "Console mode should not error")
}

func TestSendAffiliateApprovedEmail_ConsoleMode(t *testing.T) {
	svc := NewService("from@example.com", "PromoRail", "https://app.promorail.io", "")

	err := svc.SendAffiliateApprovedEmail("affiliate@example.com", "John Doe", "Acme Corp")
	assert.NoError(t, err)
}

func TestSendPayoutNotice_ConsoleMode(t *testing.T) {
	svc := NewService("from@example.com", "PromoRail", "https://app.promorail.io", "")

	err := svc.SendPayoutNotice("affiliate@example.com", "John Doe", 125.50, "USD")
	assert.NoError(t, err)
}
