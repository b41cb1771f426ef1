// Package storeerr classifies store failures into the small set of error
// kinds callers are expected to branch on.
//
// # Usage
//
//	if err := repo.AddWork(ctx, owner, id, workID); err != nil {
//		switch {
//		case errors.Is(err, storeerr.ErrNotFound):
//		case errors.Is(err, storeerr.ErrConflict):
//		}
//	}
package storeerr

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrIntegrity = errors.New("integrity violation")
	ErrStore     = errors.New("store failure")
)

// Error carries a kind, the failing operation and an optional cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil && !isKind(e.Err) {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func isKind(err error) bool {
	switch err {
	case ErrNotFound, ErrConflict, ErrIntegrity, ErrStore:
		return true
	}
	return false
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NotFound(op, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(op, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Integrity(op, format string, args ...any) error {
	return &Error{Kind: ErrIntegrity, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Classify translates a raw store error. Errors that already carry a kind
// pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: ErrNotFound, Op: op, Err: err}
	case IsDuplicate(err):
		return &Error{Kind: ErrConflict, Op: op, Err: err}
	case IsForeignKeyViolation(err):
		return &Error{Kind: ErrIntegrity, Op: op, Err: err}
	}
	return &Error{Kind: ErrStore, Op: op, Err: err}
}

// IsDuplicate reports a primary key or unique constraint failure.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func IsForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// IsCanceled reports whether err came from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
