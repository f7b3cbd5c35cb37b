// Package fhir turns validated patient input into a canonical record: a
// fresh identifier, the indexed attributes, and the serialized FHIR R4
// Patient resource. Everything downstream treats the document as opaque.
package fhir

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medrec/internal/patient/models"
)

// DateLayout is the FHIR date representation for birthDate.
const DateLayout = "2006-01-02"

// patientResource is the subset of the FHIR R4 Patient resource this
// service produces. Field names follow the FHIR JSON encoding.
type patientResource struct {
	ResourceType string      `json:"resourceType"`
	ID           string      `json:"id"`
	Meta         meta        `json:"meta"`
	Name         []humanName `json:"name,omitempty"`
	Gender       string      `json:"gender"`
	BirthDate    string      `json:"birthDate,omitempty"`
}

type meta struct {
	LastUpdated string `json:"lastUpdated"`
}

type humanName struct {
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// NewPatient builds the canonical record for the given input: assigns a
// UUID, normalizes the gender, parses the birth date, and serializes the
// resource exactly once. The returned Document is what callers get back
// verbatim on every read.
func NewPatient(input models.PatientInput, now time.Time) (models.Patient, error) {
	var birth *time.Time
	if input.Birthdate != "" {
		parsed, err := time.Parse(DateLayout, input.Birthdate)
		if err != nil {
			return models.Patient{}, fmt.Errorf("parse birthdate %q: %w", input.Birthdate, err)
		}
		birth = &parsed
	}

	patient := models.Patient{
		ID:         uuid.NewString(),
		GivenName:  input.Firstname,
		FamilyName: input.Lastname,
		Gender:     models.ParseGender(input.Gender),
		BirthDate:  birth,
	}

	resource := patientResource{
		ResourceType: "Patient",
		ID:           patient.ID,
		Meta:         meta{LastUpdated: now.UTC().Format(time.RFC3339)},
		Gender:       string(patient.Gender),
	}
	if patient.GivenName != "" || patient.FamilyName != "" {
		name := humanName{Family: patient.FamilyName}
		if patient.GivenName != "" {
			name.Given = []string{patient.GivenName}
		}
		resource.Name = []humanName{name}
	}
	if birth != nil {
		resource.BirthDate = birth.Format(DateLayout)
	}

	encoded, err := json.Marshal(resource)
	if err != nil {
		return models.Patient{}, fmt.Errorf("encode patient resource: %w", err)
	}
	patient.Document = string(encoded)
	return patient, nil
}
