// Package store owns the durable patient table: parameterized dynamic
// filtering, identity-replacing updates, and the bulk retention delete.
package store

import (
	"context"
	"time"

	"medrec/internal/patient/models"
)

// Store is the persistence boundary for patient records. Implementations
// must make every operation atomic with respect to every other operation;
// callers never observe a partially applied write or sweep.
type Store interface {
	// Create admits a new record: runs the eligibility gate, assigns the
	// creation time, and inserts attributes plus document in one write.
	Create(ctx context.Context, patient models.Patient) (models.StoredPatient, error)

	// Get looks up a record by id. A miss is (zero, false, nil); absence
	// is data, not failure.
	Get(ctx context.Context, id string) (models.StoredPatient, bool, error)

	// Search returns every record matching all given filters, ordered by
	// family name ascending with ties in insertion order. Unknown filter
	// keys are dropped; an empty map returns everything.
	Search(ctx context.Context, filters map[string]string) ([]models.StoredPatient, error)

	// Update replaces every record whose demographic tuple (given name,
	// family name, gender, birth date) matches the incoming one with a
	// single fresh record, in one transaction. The record's id changes on
	// every update.
	Update(ctx context.Context, patient models.Patient) (models.StoredPatient, error)

	// Delete removes the record with the given id and reports whether a
	// record was actually removed.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteOlderThan removes every record created strictly before cutoff
	// in one bulk statement and returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases the underlying storage handle.
	Close() error
}
