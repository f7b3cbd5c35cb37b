package store

import (
	domainerrors "medrec/pkg/domain-errors"
)

// Store errors stay consistent across the sqlite and postgres
// implementations so services and handlers translate them identically.
var (
	// ErrIneligibleAge rejects writes below the minimum admission age.
	// A business-rule rejection, not a system fault.
	ErrIneligibleAge = domainerrors.New(domainerrors.CodeIneligibleAge, "patient is younger than the minimum admission age")

	// ErrConflictingIdentity reports an id collision on insert. Identifiers
	// are UUIDs, so this is not a designed-for case, but the contract
	// returns an error rather than silently overwriting.
	ErrConflictingIdentity = domainerrors.New(domainerrors.CodeConflict, "a record with this id already exists")

	// ErrUpdateFailedAfterPurge reports the one partial state Update can
	// leave behind: the purge went through but the replacement insert and
	// the rollback both failed, leaving zero matching records.
	ErrUpdateFailedAfterPurge = domainerrors.New(domainerrors.CodeUpdateFailedAfterPurge, "update purged matching records but failed to insert the replacement")

	// ErrStorageUnavailable wraps failures to reach or open the durable
	// medium. Not retried internally; the caller decides.
	ErrStorageUnavailable = domainerrors.New(domainerrors.CodeStorageUnavailable, "storage is unavailable")
)
