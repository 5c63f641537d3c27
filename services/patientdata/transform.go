package patientdata

import (
	"strings"

	"github.com/carebase/emrbackend/services/patientdata/fhirclient"
)

const (
	unknownMedication = "Unknown medication"
	unknownAllergy    = "Unknown allergy"
	unknownCondition  = "Unknown condition"
)

// conceptText resolves a human-readable label: the coded display wins,
// then the free-text fallback, then the placeholder.
func conceptText(concept fhirclient.CodeableConcept, placeholder string) string {
	for _, coding := range concept.Coding {
		if coding.Display != "" {
			return coding.Display
		}
	}
	if concept.Text != "" {
		return concept.Text
	}
	return placeholder
}

func transformPatient(patient fhirclient.Patient) CanonicalPatientRecord {
	record := CanonicalPatientRecord{
		PatientID: patient.ID,
		MRN:       medicalRecordNumber(patient.Identifier),
		Demographics: Demographics{
			Name:      patientName(patient.Name),
			Gender:    patient.Gender,
			BirthDate: patient.BirthDate,
		},
		MedicalHistory: MedicalHistory{
			Allergies:   []string{},
			Medications: []Medication{},
			Conditions:  []string{},
		},
		Appointments: []Appointment{},
	}

	for _, telecom := range patient.Telecom {
		switch telecom.System {
		case "phone":
			if record.Demographics.Phone == "" {
				record.Demographics.Phone = telecom.Value
			}
		case "email":
			if record.Demographics.Email == "" {
				record.Demographics.Email = telecom.Value
			}
		}
	}

	if len(patient.Address) > 0 {
		record.Demographics.Address = formatAddress(patient.Address[0])
	}

	return record
}

func patientName(names []fhirclient.HumanName) string {
	if len(names) == 0 {
		return ""
	}

	// prefer the official name when the vendor marks one
	name := names[0]
	for _, candidate := range names {
		if candidate.Use == "official" {
			name = candidate
			break
		}
	}

	if name.Text != "" {
		return name.Text
	}
	return strings.TrimSpace(strings.Join(append(name.Given, name.Family), " "))
}

func medicalRecordNumber(identifiers []fhirclient.Identifier) string {
	for _, identifier := range identifiers {
		for _, coding := range identifier.Type.Coding {
			if coding.Code == "MR" {
				return identifier.Value
			}
		}
	}
	return ""
}

func formatAddress(address fhirclient.Address) string {
	parts := []string{}
	parts = append(parts, address.Line...)
	for _, part := range []string{address.City, address.State, address.PostalCode, address.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func transformMedications(medications []fhirclient.MedicationRequest) []Medication {
	result := make([]Medication, 0, len(medications))
	for _, medication := range medications {
		name := conceptText(medication.MedicationCodeableConcept, "")
		if name == "" {
			name = medication.MedicationReference.Display
		}
		if name == "" {
			name = unknownMedication
		}

		transformed := Medication{
			Name:      name,
			StartDate: medication.AuthoredOn,
			Active:    medication.Status == "active",
		}

		if len(medication.DosageInstruction) > 0 {
			dosage := medication.DosageInstruction[0]
			transformed.Dosage = dosage.Text
			transformed.Frequency = conceptText(dosage.Timing.Code, "")
		}

		result = append(result, transformed)
	}
	return result
}

func transformAllergies(allergies []fhirclient.AllergyIntolerance) []string {
	result := make([]string, 0, len(allergies))
	for _, allergy := range allergies {
		result = append(result, conceptText(allergy.Code, unknownAllergy))
	}
	return result
}

func transformConditions(conditions []fhirclient.Condition) []string {
	result := make([]string, 0, len(conditions))
	for _, condition := range conditions {
		result = append(result, conceptText(condition.Code, unknownCondition))
	}
	return result
}

func transformAppointments(appointments []fhirclient.Appointment) []Appointment {
	result := make([]Appointment, 0, len(appointments))
	for _, appointment := range appointments {
		transformed := Appointment{
			ID:            appointment.ID,
			ScheduledTime: appointment.Start,
			Status:        appointment.Status,
			Type:          conceptText(appointment.AppointmentType, ""),
		}

		if transformed.Type == "" && len(appointment.ServiceType) > 0 {
			transformed.Type = conceptText(appointment.ServiceType[0], "")
		}

		for _, participant := range appointment.Participant {
			if strings.HasPrefix(participant.Actor.Reference, "Practitioner/") {
				transformed.ProviderName = participant.Actor.Display
				break
			}
		}

		result = append(result, transformed)
	}
	return result
}

func transformPatientSummaries(patients []fhirclient.Patient) []PatientSummary {
	result := make([]PatientSummary, 0, len(patients))
	for _, patient := range patients {
		result = append(result, PatientSummary{
			PatientID: patient.ID,
			Name:      patientName(patient.Name),
			Gender:    patient.Gender,
			BirthDate: patient.BirthDate,
		})
	}
	return result
}
