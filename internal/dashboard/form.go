package dashboard

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/form"
	"github.com/go-playground/validator/v10"

	"github.com/medinsight/staff-admin/pkg/staffclient"
)

var (
	formDecoder   = form.NewDecoder()
	formEncoder   = form.NewEncoder()
	formValidator = newFormValidator()

	basicEmail = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
)

// messages maps "field.tag" to what the user sees.
var messages = map[string]string{
	"nom.required":       "name required",
	"prenom.required":    "first name required",
	"email.required":     "email required",
	"email.basic_email":  "email invalid",
	"telephone.required": "phone required",
	"type.required":      "type required",
	"type.oneof":         "type invalid",
}

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return isBasicEmail(fl.Field().String())
	})
	return v
}

// isBasicEmail accepts local@domain.tld where no part holds whitespace.
// Whitespace is anything unicode.IsSpace reports, the same set
// strings.TrimSpace strips, so NBSP or \v inside an address is rejected.
func isBasicEmail(s string) bool {
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	return basicEmail.MatchString(s)
}

// StaffForm is the raw submitted staff form. Every value is a string.
type StaffForm struct {
	Nom           string `form:"nom" validate:"required"`
	Prenom        string `form:"prenom" validate:"required"`
	Email         string `form:"email" validate:"required,basic_email"`
	Telephone     string `form:"telephone" validate:"required"`
	Type          string `form:"type" validate:"required,oneof=MEDECIN INFIRMIER AIDE_SOIGNANT TECHNICIEN SECRETAIRE"`
	Specialite    string `form:"specialite"`
	NumeroLicence string `form:"numeroLicence"`
	DateEmbauche  string `form:"dateEmbauche"`
	Actif         string `form:"actif"`
}

// ParseForm decodes submitted values and trims every field.
func ParseForm(values url.Values) (StaffForm, error) {
	var f StaffForm
	if err := formDecoder.Decode(&f, values); err != nil {
		return StaffForm{}, fmt.Errorf("decode staff form: %w", err)
	}
	f.Nom = strings.TrimSpace(f.Nom)
	f.Prenom = strings.TrimSpace(f.Prenom)
	f.Email = strings.TrimSpace(f.Email)
	f.Telephone = strings.TrimSpace(f.Telephone)
	f.Type = strings.TrimSpace(f.Type)
	f.Specialite = strings.TrimSpace(f.Specialite)
	f.NumeroLicence = strings.TrimSpace(f.NumeroLicence)
	f.DateEmbauche = strings.TrimSpace(f.DateEmbauche)
	f.Actif = strings.TrimSpace(f.Actif)
	return f, nil
}

// Validate returns a message per failing field, keyed by wire name.
// The form is valid iff the map is empty.
func (f StaffForm) Validate() map[string]string {
	errs := map[string]string{}
	err := formValidator.Struct(f)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["form"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " invalid"
		}
		errs[fe.Field()] = msg
	}
	return errs
}

// Record converts a validated form into the payload sent to the store.
func (f StaffForm) Record() staffclient.Staff {
	return staffclient.Staff{
		Nom:           f.Nom,
		Prenom:        f.Prenom,
		Type:          f.Type,
		Email:         f.Email,
		Telephone:     f.Telephone,
		Specialite:    f.Specialite,
		NumeroLicence: f.NumeroLicence,
		DateEmbauche:  normalizeDate(f.DateEmbauche),
		Actif:         f.Actif == "true",
	}
}

// Validate decodes, trims and validates values in one step.
func Validate(values url.Values) (StaffForm, map[string]string) {
	f, err := ParseForm(values)
	if err != nil {
		return f, map[string]string{"form": err.Error()}
	}
	return f, f.Validate()
}

// normalizeDate turns a calendar date into a midnight date-time and leaves
// anything else untouched.
func normalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", raw); err == nil {
		return raw + "T00:00:00"
	}
	return raw
}

// FormValues renders a stored record as initial form values.
func FormValues(s staffclient.Staff) url.Values {
	date := s.DateEmbauche
	if len(date) > 10 {
		date = date[:10]
	}
	typ := s.Type
	if typ == "" {
		typ = "MEDECIN"
	}
	values, err := formEncoder.Encode(StaffForm{
		Nom:           s.Nom,
		Prenom:        s.Prenom,
		Email:         s.Email,
		Telephone:     s.Telephone,
		Type:          typ,
		Specialite:    s.Specialite,
		NumeroLicence: s.NumeroLicence,
		DateEmbauche:  date,
		Actif:         strconv.FormatBool(s.Actif),
	})
	if err != nil {
		// StaffForm holds only strings; encoding cannot fail.
		panic(err)
	}
	return values
}

// Form is the state of one rendered form: current values and field errors.
type Form struct {
	Values url.Values
	Errors map[string]string
}

// Reset loads new initial values and clears every error.
func (f *Form) Reset(initial url.Values) {
	f.Values = cloneValues(initial)
	f.Errors = map[string]string{}
}

func (f *Form) snapshot() Form {
	errs := make(map[string]string, len(f.Errors))
	for k, v := range f.Errors {
		errs[k] = v
	}
	return Form{Values: cloneValues(f.Values), Errors: errs}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
