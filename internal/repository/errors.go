// Package repository holds the MySQL data access code.  Repositories use
// raw SQL over database/sql; methods ending in Tx run inside a transaction
// owned by the caller.
//
// The sentinel errors below let handlers tell failure kinds apart.
// ErrForbidden means the caller does not own the resource and maps to 403.
// ErrConflict means the write clashes with existing state and maps to 409.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("email already exists")
)

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
	errRowIsReferenced = 1451
)

func mysqlErrNo(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNo(err) == errDupEntry }

// isRetryable reports whether a transaction failed only because it lost a
// lock race and can be run again.
func isRetryable(err error) bool {
	n := mysqlErrNo(err)
	return n == errDeadlock || n == errLockWaitTimeout
}
