package parsers

import (
	"github.com/username/wealthfolio/backend/src/models"
)

// EmailParser converts a raw email into a structured transaction email.
type EmailParser interface {
	Parse(raw *models.RawEmail) (*models.ParsedTransactionEmail, error)
}
