package fhirclient

// Wire-level FHIR R4 resources, limited to the fields we read. Unknown
// fields coming back from a vendor are ignored on purpose.

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

type Identifier struct {
	Use    string          `json:"use,omitempty"`
	Type   CodeableConcept `json:"type,omitempty"`
	System string          `json:"system,omitempty"`
	Value  string          `json:"value,omitempty"`
}

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

type Address struct {
	Use        string   `json:"use,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
}

type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

type Quantity struct {
	Value float64 `json:"value,omitempty"`
	Unit  string  `json:"unit,omitempty"`
}

type Patient struct {
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id,omitempty"`
	Identifier   []Identifier   `json:"identifier,omitempty"`
	Active       bool           `json:"active,omitempty"`
	Name         []HumanName    `json:"name,omitempty"`
	Telecom      []ContactPoint `json:"telecom,omitempty"`
	Gender       string         `json:"gender,omitempty"`
	BirthDate    string         `json:"birthDate,omitempty"`
	Address      []Address      `json:"address,omitempty"`
}

type Dosage struct {
	Text        string `json:"text,omitempty"`
	Timing      Timing `json:"timing,omitempty"`
	DoseAndRate []struct {
		DoseQuantity Quantity `json:"doseQuantity,omitempty"`
	} `json:"doseAndRate,omitempty"`
}

type Timing struct {
	Code CodeableConcept `json:"code,omitempty"`
}

type MedicationRequest struct {
	ResourceType              string          `json:"resourceType"`
	ID                        string          `json:"id,omitempty"`
	Status                    string          `json:"status,omitempty"`
	Intent                    string          `json:"intent,omitempty"`
	MedicationCodeableConcept CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	MedicationReference       Reference       `json:"medicationReference,omitempty"`
	Subject                   Reference       `json:"subject,omitempty"`
	AuthoredOn                string          `json:"authoredOn,omitempty"`
	DosageInstruction         []Dosage        `json:"dosageInstruction,omitempty"`
}

type AllergyIntolerance struct {
	ResourceType   string          `json:"resourceType"`
	ID             string          `json:"id,omitempty"`
	ClinicalStatus CodeableConcept `json:"clinicalStatus,omitempty"`
	Code           CodeableConcept `json:"code,omitempty"`
	Patient        Reference       `json:"patient,omitempty"`
}

type Condition struct {
	ResourceType   string          `json:"resourceType"`
	ID             string          `json:"id,omitempty"`
	ClinicalStatus CodeableConcept `json:"clinicalStatus,omitempty"`
	Code           CodeableConcept `json:"code,omitempty"`
	Subject        Reference       `json:"subject,omitempty"`
}

type AppointmentParticipant struct {
	Actor  Reference `json:"actor,omitempty"`
	Status string    `json:"status,omitempty"`
}

type Appointment struct {
	ResourceType    string                   `json:"resourceType"`
	ID              string                   `json:"id,omitempty"`
	Status          string                   `json:"status,omitempty"`
	AppointmentType CodeableConcept          `json:"appointmentType,omitempty"`
	ServiceType     []CodeableConcept        `json:"serviceType,omitempty"`
	Start           string                   `json:"start,omitempty"`
	End             string                   `json:"end,omitempty"`
	Participant     []AppointmentParticipant `json:"participant,omitempty"`
}

type Bundle[T any] struct {
	ResourceType string           `json:"resourceType"`
	Type         string           `json:"type,omitempty"`
	Total        int              `json:"total,omitempty"`
	Entry        []BundleEntry[T] `json:"entry,omitempty"`
}

type BundleEntry[T any] struct {
	FullURL  string `json:"fullUrl,omitempty"`
	Resource T      `json:"resource"`
}

func (b Bundle[T]) Resources() []T {
	resources := make([]T, 0, len(b.Entry))
	for _, entry := range b.Entry {
		resources = append(resources, entry.Resource)
	}
	return resources
}
