package db

import (
	"strings"

	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique constraint violation from
// either backend. A non-empty constraint narrows the match to violations whose
// constraint name or failing column list contains it, e.g. "invoice_number"
// matches both invoices_invoice_number_key and invoices.invoice_number.
func IsUniqueViolation(err error, constraint string) bool {
	dump := pkgerrors.Dump(err)
	if !dump.UniqueViolation {
		return false
	}
	if constraint == "" {
		return true
	}
	return strings.Contains(dump.DBConstraint, constraint) || strings.Contains(dump.DBDetail, constraint)
}
