// Package sqlxrepos implements the core repositories with sqlx.
// Queries are written with "?" bindvars and portable SQL so they run on PostgreSQL and SQLite alike.
package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

func newID() string { return uuid.New().String() }

func nullTime(t time.Time) null.Time {
	return null.NewTime(t.UTC(), !t.IsZero())
}

func timeFromNull(t null.Time) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

// trapNoRowsErr maps sql.ErrNoRows to notFound.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// where accumulates AND-ed conditions.
type where struct {
	conds []string
	args  []interface{}
	err   error
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// addIn adds a condition with a single "(?)" expanded to the values of a slice argument.
func (w *where) addIn(cond string, slice interface{}) {
	q, args, err := sqlx.In(cond, slice)
	if err != nil {
		w.err = err
		return
	}
	w.add(q, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE (" + strings.Join(w.conds, ") AND (") + ")"
}

func likeValue(search string) string {
	return "%" + strings.ToLower(search) + "%"
}

func affected(res sql.Result, notFound error, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
