package mailer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrderConfirmation(t *testing.T) {
	order := &data.Order{
		ID:           uuid.MustParse("6f1c1a8e-0d7b-4b8e-9d8e-2f0a4c1b3e5d"),
		CustomerName: "Market <Nord>",
		Items: []data.OrderItem{
			{Name: "Apples", Quantity: 2},
			{Name: "Boxes", Quantity: 1},
		},
		ItemsSummary: "Apples (2 шт.)\nBoxes (1 шт.)",
		TotalPrice:   decimal.RequireFromString("24.5"),
		Currency:     "EUR",
		OrderDate:    time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC),
	}

	msg, err := render(OrderConfirmationTemplate, order)
	require.NoError(t, err)

	assert.Equal(t, "Замовлення 6f1c1a8e-0d7b-4b8e-9d8e-2f0a4c1b3e5d прийнято", msg.subject)
	assert.Contains(t, msg.plainBody, "Apples (2 шт.)")
	assert.Contains(t, msg.plainBody, "Разом: 24.50 EUR")
	assert.Contains(t, msg.plainBody, "02.03.2025 09:30")
	assert.Contains(t, msg.htmlBody, "Market &lt;Nord&gt;")
	assert.Contains(t, msg.htmlBody, "<li>Boxes &times; 1</li>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := render("missing.tmpl", nil)
	assert.Error(t, err)
}

func TestSendWithoutRecipient(t *testing.T) {
	m := New("localhost", 25, "", "", "shop@example.com")
	err := m.SendOrderConfirmation(&data.Order{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}
