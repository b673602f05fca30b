package domain

import "time"

// Pasos del registro en tres etapas.
const (
	StepNone        = 0
	StepCredentials = 1
	StepProfile     = 2
	StepDocuments   = 3
)

// Gender es el género declarado por el usuario.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"
)

// AuthProvider indica el origen de la cuenta.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

// User representa a un conductor registrado o en proceso de registro.
// El email es la clave de identidad y nunca cambia.
type User struct {
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Token        string       `json:"-"`
	FirstName    string       `json:"first_name,omitempty"`
	LastName     string       `json:"last_name,omitempty"`
	MiddleName   string       `json:"middle_name,omitempty"`
	BirthDate    string       `json:"birth_date,omitempty"` // DDMMYYYY
	Gender       Gender       `json:"gender"`
	AuthProvider AuthProvider `json:"auth_provider"`
	GoogleID     string       `json:"-"`

	ProfilePhotoURI        string `json:"profile_photo_uri,omitempty"`
	DriverLicenseNumber    string `json:"driver_license_number,omitempty"`
	DriverLicenseIssueDate string `json:"driver_license_issue_date,omitempty"` // DDMMYYYY
	DriverLicensePhotoURI  string `json:"driver_license_photo_uri,omitempty"`
	PassportPhotoURI       string `json:"passport_photo_uri,omitempty"`

	CreatedAt             time.Time `json:"created_at"`
	LastLogin             time.Time `json:"last_login"`
	RegistrationStep      int       `json:"registration_step"`
	RegistrationCompleted bool      `json:"registration_completed"`
	DocumentsUploaded     bool      `json:"documents_uploaded"`
}

// IsComplete indica si el usuario terminó las tres etapas.
func (u User) IsComplete() bool {
	return u.RegistrationStep >= StepDocuments
}
