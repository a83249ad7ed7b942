package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump flattens an error chain for structured logging.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	SQLState      string `json:"sql_state,omitempty"`
	SQLConstraint string `json:"sql_constraint,omitempty"`
	SQLTable      string `json:"sql_table,omitempty"`
	SQLDetail     string `json:"sql_detail,omitempty"`
	SQLMessage    string `json:"sql_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		d.SQLState = fmt.Sprintf("sqlite:%d/%d", int(liteErr.Code), int(liteErr.ExtendedCode))
		d.SQLMessage = liteErr.Error()
		return d
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.SQLState = pgxErr.Code
		d.SQLConstraint = pgxErr.ConstraintName
		d.SQLTable = pgxErr.TableName
		d.SQLDetail = pgxErr.Detail
		d.SQLMessage = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.SQLState = string(pqErr.Code)
		d.SQLConstraint = pqErr.Constraint
		d.SQLTable = pqErr.Table
		d.SQLDetail = pqErr.Detail
		d.SQLMessage = pqErr.Message
	}
	return d
}
