package pipeline

import (
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/normalize"
)

// FallbackDescription marks the placeholder row stored when a statement
// could not be read, prompting the user to retry.
const FallbackDescription = "Error procesando el estado - Intenta nuevamente"

// fallbackTransactions is the single zero-amount notice returned instead of
// extraction results.
func fallbackTransactions(userID string, now time.Time) []domain.Transaction {
	return []domain.Transaction{{
		UserID:      userID,
		Date:        normalize.Today(now),
		Description: FallbackDescription,
		Category:    domain.CategoryOther,
		Amount:      0,
		Type:        domain.TxTypeCharge,
	}}
}
