package invoices

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
)

const (
	maxNumberAttempts = 5

	shortSequenceDigits = 4
	wideSequenceDigits  = 6
)

// formatInvoiceNumber renders PREFIX-YEAR-NNNN. Wide sequences keep the
// same layout with more digits.
func formatInvoiceNumber(prefix string, year, seq int) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "ZC"
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// randomSequence draws uniformly from the digits-wide range without a
// leading zero, e.g. 1000..9999 for four digits.
func randomSequence(digits int) int {
	low := 1
	for i := 1; i < digits; i++ {
		low *= 10
	}
	return rand.IntN(9*low) + low
}

// nextInvoiceNumber draws four-digit numbers until one is unused, then
// widens to six digits once a year's short range is crowded. The unique
// index on invoice_number still rejects a racing duplicate at insert time.
func (s *service) nextInvoiceNumber(ctx context.Context) (string, error) {
	year := s.now().Year()
	for _, digits := range []int{shortSequenceDigits, wideSequenceDigits} {
		for attempt := 0; attempt < maxNumberAttempts; attempt++ {
			candidate := formatInvoiceNumber(s.numberPrefix, year, s.sequence(digits))
			exists, err := s.repo.InvoiceNumberExists(ctx, candidate)
			if err != nil {
				return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check invoice number")
			}
			if !exists {
				return candidate, nil
			}
		}
		s.logg.Warn(s.logg.WithField(ctx, "digits", digits), "invoice.number_range_crowded")
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique invoice number")
}
