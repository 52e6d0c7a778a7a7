// Package repository provides data access for users, movies, showtimes,
// seats and tickets. Sentinel errors let the dispatcher distinguish
// failure scenarios without parsing driver messages; methods ending in Tx
// run inside a caller-owned transaction and never commit or roll back
// themselves.
package repository

import "strings"

// IsDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062). Uniqueness constraints are part of the concurrency design:
// a losing concurrent insert surfaces as 1062 and is translated into
// "already exists" semantics by the caller.
func IsDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
