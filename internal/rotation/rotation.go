// Package rotation implements round-robin proxy allocation: a persisted
// per-pool cursor, a dispensed-entry ledger, and per-user issuance history.
package rotation

import (
	"errors"
	"fmt"

	"github.com/zulandar/proxydepot/internal/models"
	"github.com/zulandar/proxydepot/internal/pool"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPoolNotFound is returned when the requested pool is not registered.
var ErrPoolNotFound = errors.New("rotation: pool not found")

// ErrPoolEmpty is returned when the pool exists but has no entries.
var ErrPoolEmpty = errors.New("rotation: pool empty")

// Allocate hands out the next entry from the named pool. Entries are
// re-read from the pool source on every call, so appends show up
// immediately. The cursor advance is a single transaction with a row lock
// on the cursor, so two concurrent allocations can never both advance from
// the same prior index.
//
// The first allocation from a fresh pool returns the entry at index 1, not
// index 0: the cursor starts at 0 and is incremented before indexing. This
// matches the deployed rotation order (see the end-to-end test).
//
// Once the cursor wraps past the end of the pool, previously dispensed
// entries become eligible again. The modulo is always taken against the
// length read on this call, so a cursor left beyond the end of a pool that
// shrank clamps on the next allocation.
//
// Note: SQLite ignores FOR UPDATE but serializes writers at the database
// level, which preserves correctness; MySQL takes the row lock.
func Allocate(db *gorm.DB, src pool.Source, name string) (string, error) {
	entries, err := src.Entries(name)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		// Classify before giving up: registered-but-empty vs unknown.
		if _, perr := pool.Get(db, name); errors.Is(perr, pool.ErrNotFound) {
			return "", ErrPoolNotFound
		} else if perr != nil {
			return "", fmt.Errorf("rotation: allocate %q: %w", name, perr)
		}
		return "", ErrPoolEmpty
	}

	var entry string
	err = db.Transaction(func(tx *gorm.DB) error {
		var cur models.RotationCursor
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pool_name = ?", name).
			Limit(1).
			Find(&cur)
		if result.Error != nil {
			return fmt.Errorf("read cursor: %w", result.Error)
		}

		lastIndex := 0
		if result.RowsAffected > 0 {
			lastIndex = cur.LastIndex
		}

		nextIndex := (lastIndex + 1) % len(entries)
		if err := setCursor(tx, name, nextIndex); err != nil {
			return err
		}
		entry = entries[nextIndex]
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("rotation: allocate %q: %w", name, err)
	}
	return entry, nil
}
