package patientdata

// Canonical patient record: one vendor-neutral shape regardless of which
// EHR the data came from.

type Demographics struct {
	Name      string `json:"name"`
	Gender    string `json:"gender,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	Active    bool   `json:"active"`
}

type MedicalHistory struct {
	Allergies   []string     `json:"allergies"`
	Medications []Medication `json:"medications"`
	Conditions  []string     `json:"conditions"`
}

type Appointment struct {
	ID            string `json:"id"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
	Type          string `json:"type,omitempty"`
	ProviderName  string `json:"providerName,omitempty"`
	Status        string `json:"status,omitempty"`
}

type CanonicalPatientRecord struct {
	PatientID      string         `json:"patientID"`
	MRN            string         `json:"mrn,omitempty"`
	Demographics   Demographics   `json:"demographics"`
	MedicalHistory MedicalHistory `json:"medicalHistory"`
	Appointments   []Appointment  `json:"appointments"`
}

// FetchResponse carries the record plus the categories that could not be
// fetched. Demographics are never in this list, without them the whole
// fetch fails.
type FetchResponse struct {
	ProviderID string                 `json:"providerID"`
	Record     CanonicalPatientRecord `json:"record"`
	Incomplete []string               `json:"incomplete,omitempty"`
}

type PatientSummary struct {
	PatientID string `json:"patientID"`
	Name      string `json:"name"`
	Gender    string `json:"gender,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
}

type SearchRequest struct {
	UserID     string `form:"userId"`
	ProviderID string `form:"provider"`
	FirstName  string `form:"firstName"`
	LastName   string `form:"lastName"`
	BirthDate  string `form:"dateOfBirth"`
	Identifier string `form:"identifier"`
}

type SearchResponse struct {
	ProviderID string           `json:"providerID"`
	Patients   []PatientSummary `json:"patients"`
}
