package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"medrec/internal/patient/models"
)

// timestampLayout is a fixed-width UTC encoding for created_at so that
// lexicographic comparison in SQL equals chronological comparison.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id          TEXT PRIMARY KEY,
		given_name  TEXT NOT NULL DEFAULT '',
		family_name TEXT NOT NULL DEFAULT '',
		gender      TEXT NOT NULL DEFAULT 'unknown',
		birth_date  TEXT,
		created_at  TEXT NOT NULL,
		fhir        TEXT NOT NULL
	)`,
	`CREATE VIEW IF NOT EXISTS patients_by_family AS
		SELECT rowid AS seq, id, given_name, family_name, gender, birth_date, created_at, fhir
		FROM patients
		ORDER BY family_name, rowid`,
}

// SQLite persists patient records in a local SQLite database. It is the
// default durable medium: the service is single-process and the store
// owns the handle explicitly, acquired at construction and released by
// Close.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) the database at path and ensures the
// schema. Use ":memory:" for an ephemeral store.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite at %s: %v", ErrStorageUnavailable, path, err)
	}
	// A single connection serializes writers and keeps the in-memory
	// variant from opening a second, empty database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite at %s: %v", ErrStorageUnavailable, path, err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create patients schema: %w", err)
		}
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Create(ctx context.Context, patient models.Patient) (models.StoredPatient, error) {
	now := s.now()
	if !models.EligibleAt(patient.BirthDate, now) {
		return models.StoredPatient{}, ErrIneligibleAge
	}
	normalize(&patient)

	stored := models.StoredPatient{Patient: patient, CreatedAt: now}
	if err := s.insert(ctx, s.db, stored); err != nil {
		return models.StoredPatient{}, err
	}
	return stored, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLite) insert(ctx context.Context, db execer, stored models.StoredPatient) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO patients (id, given_name, family_name, gender, birth_date, created_at, fhir)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stored.ID,
		stored.GivenName,
		stored.FamilyName,
		string(stored.Gender),
		birthDateText(stored.BirthDate),
		stored.CreatedAt.UTC().Format(timestampLayout),
		stored.Document,
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return fmt.Errorf("%w: id %s", ErrConflictingIdentity, stored.ID)
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (models.StoredPatient, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, given_name, family_name, gender, birth_date, created_at, fhir
		 FROM patients WHERE id = ?`, id)
	stored, err := scanSQLitePatient(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredPatient{}, false, nil
	}
	if err != nil {
		return models.StoredPatient{}, false, fmt.Errorf("get patient: %w", err)
	}
	return stored, true, nil
}

func (s *SQLite) Search(ctx context.Context, filters map[string]string) ([]models.StoredPatient, error) {
	clause, args := buildFilter(filters, questionPlaceholders)
	// The view is pre-sorted by family name; the explicit ORDER BY pins
	// the contract rather than leaving it to view flattening.
	query := `SELECT id, given_name, family_name, gender, birth_date, created_at, fhir
		 FROM patients_by_family` + clause + ` ORDER BY family_name, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]models.StoredPatient, 0)
	for rows.Next() {
		stored, err := scanSQLitePatient(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		results = append(results, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return results, nil
}

func (s *SQLite) Update(ctx context.Context, patient models.Patient) (models.StoredPatient, error) {
	now := s.now()
	// Gate before the purge: an ineligible update must not delete the
	// records it would have replaced.
	if !models.EligibleAt(patient.BirthDate, now) {
		return models.StoredPatient{}, ErrIneligibleAge
	}
	normalize(&patient)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.StoredPatient{}, fmt.Errorf("begin update: %w", err)
	}

	// IS instead of = so a NULL birth date matches itself.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM patients
		 WHERE given_name = ? AND family_name = ? AND gender = ? AND birth_date IS ?`,
		patient.GivenName, patient.FamilyName, string(patient.Gender), birthDateText(patient.BirthDate),
	)
	if err != nil {
		_ = tx.Rollback()
		return models.StoredPatient{}, fmt.Errorf("purge matching patients: %w", err)
	}

	stored := models.StoredPatient{Patient: patient, CreatedAt: now}
	if err := s.insert(ctx, tx, stored); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return models.StoredPatient{}, fmt.Errorf("%w: insert failed (%v), rollback failed (%v)", ErrUpdateFailedAfterPurge, err, rbErr)
		}
		return models.StoredPatient{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.StoredPatient{}, fmt.Errorf("commit update: %w", err)
	}
	return stored, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLite) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM patients WHERE created_at < ?`,
		cutoff.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired patients: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired patients: %w", err)
	}
	return affected, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func normalize(patient *models.Patient) {
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}
	if patient.Gender == "" {
		patient.Gender = models.GenderUnknown
	}
}

// birthDateText returns the stored form of a birth date, nil for absent.
func birthDateText(birth *time.Time) any {
	if birth == nil {
		return nil
	}
	return birth.Format("2006-01-02")
}

func scanSQLitePatient(scan func(dest ...any) error) (models.StoredPatient, error) {
	var (
		stored    models.StoredPatient
		gender    string
		birth     sql.NullString
		createdAt string
	)
	err := scan(&stored.ID, &stored.GivenName, &stored.FamilyName, &gender, &birth, &createdAt, &stored.Document)
	if err != nil {
		return models.StoredPatient{}, err
	}
	stored.Gender = models.Gender(gender)
	if birth.Valid {
		parsed, err := time.Parse("2006-01-02", birth.String)
		if err != nil {
			return models.StoredPatient{}, fmt.Errorf("parse birth_date %q: %w", birth.String, err)
		}
		stored.BirthDate = &parsed
	}
	created, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return models.StoredPatient{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	stored.CreatedAt = created
	return stored, nil
}

func isSQLiteConstraint(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
