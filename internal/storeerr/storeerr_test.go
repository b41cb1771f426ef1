package storeerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"not found", NotFound("get mylist", "mylist %d does not exist", 7), ErrNotFound, "get mylist: mylist 7 does not exist"},
		{"conflict", Conflict("create mylist", "mylist %q already exists", "favs"), ErrConflict, `create mylist: mylist "favs" already exists`},
		{"integrity", Integrity("upsert work", "work id is required"), ErrIntegrity, "upsert work: work id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

func TestError_MultipleKinds(t *testing.T) {
	err := &Error{Kind: ErrIntegrity, Op: "reorder mylist", Msg: "not a permutation", Err: ErrConflict}
	assert.ErrorIs(t, err, ErrIntegrity)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "reorder mylist: not a permutation", err.Error())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("op", nil))

	assert.ErrorIs(t, Classify("get work", gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, Classify("insert", gorm.ErrDuplicatedKey), ErrConflict)
	assert.ErrorIs(t, Classify("insert", gorm.ErrForeignKeyViolated), ErrIntegrity)

	raw := errors.New("disk I/O error")
	classified := Classify("insert", raw)
	assert.ErrorIs(t, classified, ErrStore)
	assert.ErrorIs(t, classified, raw)
	assert.Equal(t, "insert: store failure: disk I/O error", classified.Error())

	sqliteDup := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	assert.ErrorIs(t, Classify("insert", fmt.Errorf("wrapped: %w", sqliteDup)), ErrConflict)

	sqliteFK := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}
	assert.ErrorIs(t, Classify("insert", sqliteFK), ErrIntegrity)
}

func TestClassify_PassesThroughKindedErrors(t *testing.T) {
	inner := NotFound("load mylist", "mylist 3 does not exist")
	wrapped := fmt.Errorf("tx: %w", inner)

	out := Classify("add work to mylist", wrapped)
	assert.Same(t, wrapped, out)
	assert.ErrorIs(t, out, ErrNotFound)
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(context.Canceled))
	assert.True(t, IsCanceled(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.False(t, IsCanceled(ErrStore))
}
