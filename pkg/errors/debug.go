package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"

	pgUniqueViolation = "23505"
)

// ErrorDump is the log-friendly view of an error chain, including the
// database fields of whichever ledger backend produced it.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	DBBackend       string `json:"db_backend,omitempty"`
	DBCode          string `json:"db_code,omitempty"`
	DBConstraint    string `json:"db_constraint,omitempty"`
	DBTable         string `json:"db_table,omitempty"`
	DBColumn        string `json:"db_column,omitempty"`
	DBDetail        string `json:"db_detail,omitempty"`
	DBMessage       string `json:"db_message,omitempty"`
	UniqueViolation bool   `json:"unique_violation,omitempty"`
}

// Dump flattens err for structured logging.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgxErr):
		d.DBBackend = BackendPostgres
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
		d.UniqueViolation = pgxErr.Code == pgUniqueViolation
	case errors.As(err, &pqErr):
		d.DBBackend = BackendPostgres
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBColumn = pqErr.Column
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
		d.UniqueViolation = string(pqErr.Code) == pgUniqueViolation
	case errors.As(err, &liteErr):
		dumpSQLite(&d, liteErr)
	}
	return d
}

// dumpSQLite fills the database fields from a SQLite error. SQLite names the
// failing columns in the message ("UNIQUE constraint failed: invoices.invoice_number")
// rather than in structured fields.
func dumpSQLite(d *ErrorDump, liteErr sqlite3.Error) {
	d.DBBackend = BackendSQLite
	d.DBCode = strconv.Itoa(int(liteErr.ExtendedCode))
	d.DBMessage = liteErr.Error()
	d.UniqueViolation = liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	if liteErr.Code != sqlite3.ErrConstraint {
		return
	}

	kind, columns, ok := strings.Cut(d.DBMessage, " constraint failed: ")
	if !ok {
		return
	}
	d.DBConstraint = strings.ToLower(kind)
	first, _, _ := strings.Cut(columns, ",")
	if table, column, ok := strings.Cut(strings.TrimSpace(first), "."); ok {
		d.DBTable = table
		d.DBColumn = column
	}
	d.DBDetail = columns
}
