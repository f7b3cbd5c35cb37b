package models

import (
	"strings"
	"time"
)

// Gender is the administrative gender of a patient, matching the FHIR
// value set. Unrecognized input normalizes to GenderUnknown.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// ParseGender normalizes free-form input into the closed Gender set.
func ParseGender(raw string) Gender {
	switch g := Gender(strings.ToLower(strings.TrimSpace(raw))); g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return g
	default:
		return GenderUnknown
	}
}

// PatientInput is the caller-supplied shape for create and update requests.
// The id is never caller-supplied; the codec assigns it.
type PatientInput struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Gender    string `json:"gender"`
	Birthdate string `json:"birthdate"` // YYYY-MM-DD, optional
}

// Patient is the canonical record produced by the resource codec: indexed
// attributes plus the opaque serialized FHIR document. The store persists
// Document verbatim and never parses it.
type Patient struct {
	ID         string
	GivenName  string
	FamilyName string
	Gender     Gender
	BirthDate  *time.Time // date only, nil when not supplied
	Document   string
}

// StoredPatient is a Patient as it exists in storage, with the
// store-assigned creation time that drives retention.
type StoredPatient struct {
	Patient
	CreatedAt time.Time
}
