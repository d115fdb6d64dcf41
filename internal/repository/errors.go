package repository

import "errors"

var (
	// ErrSoldierExists signals a duplicate service number on sign-up.
	ErrSoldierExists = errors.New("soldier already exists")
	// ErrNotFound signals an absent soldier or point record.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a conditional update that matched zero rows: the
	// record was resolved, deleted or consumed by a concurrent writer
	// between the caller's precondition check and its write.
	ErrConflict = errors.New("conflicting update")
)
