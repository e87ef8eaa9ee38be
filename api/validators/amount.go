package validators

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
)

// ParseAmount reads a money field that must be a bare JSON number. Quoted
// numbers, booleans and null are rejected.
func ParseAmount(raw json.RawMessage, field string) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, field+" is required").
			WithDetails(map[string]string{field: "is required"})
	}
	invalid := pkgerrors.New(pkgerrors.CodeValidation, field+" must be a number").
		WithDetails(map[string]string{field: "must be a number"})
	if c := trimmed[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Zero, invalid
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return decimal.Zero, invalid
	}
	amount, err := decimal.NewFromString(number.String())
	if err != nil {
		return decimal.Zero, invalid
	}
	return amount, nil
}
