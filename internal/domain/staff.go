package domain

import "time"

// StaffType enumerates hospital personnel categories.
type StaffType string

const (
	StaffTypeMedecin      StaffType = "MEDECIN"
	StaffTypeInfirmier    StaffType = "INFIRMIER"
	StaffTypeAideSoignant StaffType = "AIDE_SOIGNANT"
	StaffTypeTechnicien   StaffType = "TECHNICIEN"
	StaffTypeSecretaire   StaffType = "SECRETAIRE"
)

// StaffTypes lists every accepted StaffType in display order.
var StaffTypes = []StaffType{
	StaffTypeMedecin,
	StaffTypeInfirmier,
	StaffTypeAideSoignant,
	StaffTypeTechnicien,
	StaffTypeSecretaire,
}

// Valid reports whether t is one of the known literals.
func (t StaffType) Valid() bool {
	for _, known := range StaffTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RealmRole is the identity-provider role granted to members of this type.
func (t StaffType) RealmRole() string {
	return "ROLE_" + string(t)
}

// Staff models one hospital staff member.
type Staff struct {
	ID            int64
	AccountID     *string
	Nom           string
	Prenom        string
	Email         string
	Telephone     string
	Type          StaffType
	Specialite    string
	NumeroLicence *string
	Actif         bool
	DateEmbauche  time.Time
	PasswordHash  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName joins last and first name the way listings show them.
func (s *Staff) FullName() string {
	return s.Nom + " " + s.Prenom
}
