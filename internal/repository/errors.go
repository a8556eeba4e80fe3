// Package repository implements MySQL persistence for the booking service.
// Repositories return the sentinel errors below so that the service layer
// can translate storage outcomes into domain errors without inspecting
// driver-specific values.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by primary or unique key matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("duplicate")

// ErrStaleStatus is returned by guarded booking updates when the row no
// longer has the status the caller read.  Another writer won the race.
var ErrStaleStatus = errors.New("booking status changed concurrently")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

type rowScanner interface {
	Scan(dest ...any) error
}
