package wealthsimple

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/wealthfolio/backend/src/models"
)

func TestParseFullConfirmation(t *testing.T) {
	raw := &models.RawEmail{
		Subject:   "Your order has been filled",
		FromEmail: "noreply@wealthsimple.com",
		Body: "Hi Alex,\n\nYour TFSA order to buy 10 shares of AAPL has been filled on January 17, 2024 " +
			"at an average price of $150.00.\nTotal cost: $1,500.00\nOrder number: WS12345678\n\nThe Wealthsimple Team",
		ReceivedAt: time.Date(2024, 1, 17, 16, 0, 0, 0, time.UTC),
	}

	parser := NewParser()
	parsed, err := parser.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", parsed.Symbol)
	assert.Equal(t, models.TransactionBuy, parsed.TransactionType)
	assert.Equal(t, 10.0, parsed.Quantity)
	assert.Equal(t, 150.00, parsed.Price)
	assert.Equal(t, 1500.00, parsed.TotalAmount)
	assert.Equal(t, "TFSA", parsed.AccountType)
	assert.Equal(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), parsed.TransactionDate)
	assert.Equal(t, raw.Subject, parsed.Subject)
	assert.Equal(t, raw.FromEmail, parsed.FromEmail)
	assert.Equal(t, "wealthsimple_regex", parsed.ParseMethod)
	assert.InDelta(t, 1.0, parsed.Confidence, 1e-9)
}

func TestParseHTMLBody(t *testing.T) {
	raw := &models.RawEmail{
		Subject:   "Order filled",
		FromEmail: "noreply@wealthsimple.com",
		Body: "<html><body><p>Your order to sell 2.5 shares of VTI was filled on February 3, 2025 " +
			"at a price of $95.50 in your RRSP account.</p></body></html>",
		ReceivedAt: time.Date(2025, 2, 3, 20, 0, 0, 0, time.UTC),
	}

	parsed, err := NewParser().Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "VTI", parsed.Symbol)
	assert.Equal(t, models.TransactionSell, parsed.TransactionType)
	assert.Equal(t, 2.5, parsed.Quantity)
	assert.Equal(t, 95.50, parsed.Price)
	assert.Equal(t, "RRSP", parsed.AccountType)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), parsed.TransactionDate)
	// No explicit total in the email: derived from quantity * price.
	assert.Equal(t, 238.75, parsed.TotalAmount)
	assert.InDelta(t, 0.9, parsed.Confidence, 1e-9)
	assert.NotContains(t, parsed.RawContent, "<p>")
}

func TestParseOlderTemplateFallback(t *testing.T) {
	received := time.Date(2023, 6, 12, 14, 0, 0, 0, time.UTC)
	raw := &models.RawEmail{
		Subject:    "Trade confirmation",
		FromEmail:  "support@wealthsimple.com",
		Body:       "You bought 100 shares of XEQT at an average price of $28.85.",
		ReceivedAt: received,
	}

	parsed, err := NewParser().Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "XEQT", parsed.Symbol)
	assert.Equal(t, models.TransactionBuy, parsed.TransactionType)
	assert.Equal(t, 100.0, parsed.Quantity)
	assert.Equal(t, 28.85, parsed.Price)
	assert.Equal(t, 2885.00, parsed.TotalAmount)
	assert.Empty(t, parsed.AccountType)
	// No date in the body: falls back to the received timestamp.
	assert.Equal(t, received, parsed.TransactionDate)
	// Older template, derived total, missing account and date all lower confidence.
	assert.InDelta(t, 0.55, parsed.Confidence, 1e-9)
}

func TestParseThousandsSeparators(t *testing.T) {
	raw := &models.RawEmail{
		Subject:    "Order filled",
		FromEmail:  "noreply@wealthsimple.com",
		Body:       "Your Margin order to buy 1,200 shares of BN was filled on March 5, 2024 at an average price of $52.30. Total amount: $62,760.00",
		ReceivedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}

	parsed, err := NewParser().Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, 1200.0, parsed.Quantity)
	assert.Equal(t, 62760.00, parsed.TotalAmount)
	assert.Equal(t, "Margin", parsed.AccountType)
}

func TestParseRejectsNonConfirmation(t *testing.T) {
	tests := []struct {
		name string
		raw  *models.RawEmail
	}{
		{
			name: "newsletter",
			raw: &models.RawEmail{
				Subject: "Your weekly market update",
				Body:    "Markets were up this week. Read more on our blog.",
			},
		},
		{
			name: "order line without price",
			raw: &models.RawEmail{
				Subject: "Order update",
				Body:    "Your order to buy 10 shares of AAPL is pending.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoOrderLine), "error should wrap ErrNoOrderLine, got %v", err)
		})
	}
}

func TestParseNilEmail(t *testing.T) {
	_, err := NewParser().Parse(nil)
	require.Error(t, err)
}
