package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"medrec/internal/patient/models"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		seq         BIGSERIAL,
		id          TEXT PRIMARY KEY,
		given_name  TEXT NOT NULL DEFAULT '',
		family_name TEXT NOT NULL DEFAULT '',
		gender      TEXT NOT NULL DEFAULT 'unknown',
		birth_date  DATE,
		created_at  TIMESTAMPTZ NOT NULL,
		fhir        TEXT NOT NULL
	)`,
	`CREATE OR REPLACE VIEW patients_by_family AS
		SELECT seq, id, given_name, family_name, gender, birth_date, created_at, fhir
		FROM patients
		ORDER BY family_name, seq`,
}

// Postgres persists patient records in PostgreSQL. Same contract as the
// SQLite store; used when the service runs against a shared database.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgres wraps an existing database handle and ensures the schema.
// The caller owns opening the connection; the store owns it afterwards
// and releases it in Close.
func NewPostgres(db *sql.DB) (*Postgres, error) {
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: ping postgres: %v", ErrStorageUnavailable, err)
	}
	for _, stmt := range postgresSchema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("create patients schema: %w", err)
		}
	}
	return &Postgres{db: db, now: time.Now}, nil
}

func (s *Postgres) Create(ctx context.Context, patient models.Patient) (models.StoredPatient, error) {
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

func (s *Postgres) insert(ctx context.Context, db execer, stored models.StoredPatient) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO patients (id, given_name, family_name, gender, birth_date, created_at, fhir)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stored.ID,
		stored.GivenName,
		stored.FamilyName,
		string(stored.Gender),
		nullBirthDate(stored.BirthDate),
		stored.CreatedAt.UTC(),
		stored.Document,
	)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return fmt.Errorf("%w: id %s", ErrConflictingIdentity, stored.ID)
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id string) (models.StoredPatient, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, given_name, family_name, gender, birth_date, created_at, fhir
		 FROM patients WHERE id = $1`, id)
	stored, err := scanPostgresPatient(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredPatient{}, false, nil
	}
	if err != nil {
		return models.StoredPatient{}, false, fmt.Errorf("get patient: %w", err)
	}
	return stored, true, nil
}

func (s *Postgres) Search(ctx context.Context, filters map[string]string) ([]models.StoredPatient, error) {
	clause, args := buildFilter(filters, dollarPlaceholders)
	query := `SELECT id, given_name, family_name, gender, birth_date, created_at, fhir
		 FROM patients_by_family` + clause + ` ORDER BY family_name, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]models.StoredPatient, 0)
	for rows.Next() {
		stored, err := scanPostgresPatient(rows.Scan)
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

func (s *Postgres) Update(ctx context.Context, patient models.Patient) (models.StoredPatient, error) {
	now := s.now()
	if !models.EligibleAt(patient.BirthDate, now) {
		return models.StoredPatient{}, ErrIneligibleAge
	}
	normalize(&patient)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.StoredPatient{}, fmt.Errorf("begin update: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM patients
		 WHERE given_name = $1 AND family_name = $2 AND gender = $3
		   AND birth_date IS NOT DISTINCT FROM $4`,
		patient.GivenName, patient.FamilyName, string(patient.Gender), nullBirthDate(patient.BirthDate),
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

func (s *Postgres) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	return affected > 0, nil
}

func (s *Postgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM patients WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired patients: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired patients: %w", err)
	}
	return affected, nil
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func nullBirthDate(birth *time.Time) sql.NullTime {
	if birth == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *birth, Valid: true}
}

func scanPostgresPatient(scan func(dest ...any) error) (models.StoredPatient, error) {
	var (
		stored models.StoredPatient
		gender string
		birth  sql.NullTime
	)
	err := scan(&stored.ID, &stored.GivenName, &stored.FamilyName, &gender, &birth, &stored.CreatedAt, &stored.Document)
	if err != nil {
		return models.StoredPatient{}, err
	}
	stored.Gender = models.Gender(gender)
	if birth.Valid {
		date := birth.Time
		stored.BirthDate = &date
	}
	return stored, nil
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
