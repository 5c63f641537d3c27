package patientdata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carebase/emrbackend/services/patientdata/fhirclient"
)

func TestConceptTextPrefersCodedDisplay(t *testing.T) {
	concept := fhirclient.CodeableConcept{
		Coding: []fhirclient.Coding{
			{Code: "197361"},
			{Code: "197361", Display: "Amlodipine 5 MG Oral Tablet"},
		},
		Text: "amlodipine",
	}

	assert.Equal(t, "Amlodipine 5 MG Oral Tablet", conceptText(concept, "Unknown medication"))
}

func TestConceptTextFallsBackToFreeText(t *testing.T) {
	concept := fhirclient.CodeableConcept{
		Coding: []fhirclient.Coding{{Code: "197361"}},
		Text:   "amlodipine",
	}

	assert.Equal(t, "amlodipine", conceptText(concept, "Unknown medication"))
}

func TestConceptTextFallsBackToPlaceholder(t *testing.T) {
	assert.Equal(t, "Unknown medication", conceptText(fhirclient.CodeableConcept{}, "Unknown medication"))
}

func TestPatientNamePrefersOfficial(t *testing.T) {
	name := patientName([]fhirclient.HumanName{
		{Use: "nickname", Given: []string{"Jay"}},
		{Use: "official", Family: "Argonaut", Given: []string{"Jason"}},
	})

	assert.Equal(t, "Jason Argonaut", name)
}

func TestPatientNameUsesTextWhenPresent(t *testing.T) {
	name := patientName([]fhirclient.HumanName{
		{Use: "official", Text: "Jason Argonaut Jr.", Family: "Argonaut"},
	})

	assert.Equal(t, "Jason Argonaut Jr.", name)
}

func TestMedicalRecordNumber(t *testing.T) {
	mrn := medicalRecordNumber([]fhirclient.Identifier{
		{System: "urn:oid:1.2.840.114350", Value: "Z6129"},
		{Type: fhirclient.CodeableConcept{Coding: []fhirclient.Coding{{Code: "MR"}}}, Value: "203579"},
	})

	assert.Equal(t, "203579", mrn)
}

func TestMedicalRecordNumberAbsent(t *testing.T) {
	mrn := medicalRecordNumber([]fhirclient.Identifier{
		{System: "urn:oid:1.2.840.114350", Value: "Z6129"},
	})

	assert.Equal(t, "", mrn)
}

func TestTransformMedicationWithoutName(t *testing.T) {
	medications := transformMedications([]fhirclient.MedicationRequest{
		{ID: "med-1", Status: "stopped"},
	})

	assert.Len(t, medications, 1)
	assert.Equal(t, "Unknown medication", medications[0].Name)
	assert.False(t, medications[0].Active)
}

func TestTransformMedicationUsesReferenceDisplay(t *testing.T) {
	medications := transformMedications([]fhirclient.MedicationRequest{
		{
			ID:                  "med-1",
			Status:              "active",
			MedicationReference: fhirclient.Reference{Reference: "Medication/med-abc", Display: "Lisinopril 10 MG"},
		},
	})

	assert.Len(t, medications, 1)
	assert.Equal(t, "Lisinopril 10 MG", medications[0].Name)
	assert.True(t, medications[0].Active)
}

func TestTransformMedicationDosage(t *testing.T) {
	medications := transformMedications([]fhirclient.MedicationRequest{
		{
			ID:                        "med-1",
			Status:                    "active",
			AuthoredOn:                "2024-01-15",
			MedicationCodeableConcept: fhirclient.CodeableConcept{Text: "amlodipine"},
			DosageInstruction: []fhirclient.Dosage{
				{
					Text:   "one tablet daily",
					Timing: fhirclient.Timing{Code: fhirclient.CodeableConcept{Coding: []fhirclient.Coding{{Code: "QD", Display: "every day"}}}},
				},
			},
		},
	})

	assert.Len(t, medications, 1)
	assert.Equal(t, "one tablet daily", medications[0].Dosage)
	assert.Equal(t, "every day", medications[0].Frequency)
	assert.Equal(t, "2024-01-15", medications[0].StartDate)
}

func TestTransformAppointmentProviderName(t *testing.T) {
	appointments := transformAppointments([]fhirclient.Appointment{
		{
			ID:     "appt-1",
			Status: "booked",
			Start:  "2024-09-01T09:00:00Z",
			Participant: []fhirclient.AppointmentParticipant{
				{Actor: fhirclient.Reference{Reference: "Patient/pat-1", Display: "Jason Argonaut"}},
				{Actor: fhirclient.Reference{Reference: "Practitioner/prac-1", Display: "Dr. Smith"}},
			},
		},
	})

	assert.Len(t, appointments, 1)
	assert.Equal(t, "Dr. Smith", appointments[0].ProviderName)
	assert.Equal(t, "2024-09-01T09:00:00Z", appointments[0].ScheduledTime)
}

func TestTransformAppointmentTypeFromServiceType(t *testing.T) {
	appointments := transformAppointments([]fhirclient.Appointment{
		{
			ID:          "appt-1",
			ServiceType: []fhirclient.CodeableConcept{{Coding: []fhirclient.Coding{{Display: "Cardiology"}}}},
		},
	})

	assert.Len(t, appointments, 1)
	assert.Equal(t, "Cardiology", appointments[0].Type)
}

func TestTransformPatientContactDetails(t *testing.T) {
	record := transformPatient(fhirclient.Patient{
		ID: "eVgg2DN-sqn1Sl.zXEgYppw3",
		Telecom: []fhirclient.ContactPoint{
			{System: "phone", Value: "555-0100"},
			{System: "phone", Value: "555-0199"},
			{System: "email", Value: "jason@example.com"},
		},
		Address: []fhirclient.Address{
			{Line: []string{"1979 Milky Way"}, City: "Verona", State: "WI", PostalCode: "53593"},
		},
	})

	assert.Equal(t, "555-0100", record.Demographics.Phone)
	assert.Equal(t, "jason@example.com", record.Demographics.Email)
	assert.Equal(t, "1979 Milky Way, Verona, WI, 53593", record.Demographics.Address)
}
