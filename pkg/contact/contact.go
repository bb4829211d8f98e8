// Package contact accepts wedding enquiries from the site's contact form.
package contact

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"k8s.io/klog/v2"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submission is one enquiry.
type Submission struct {
	ID        string    `json:"id,omitempty"`
	Received  time.Time `json:"timestamp,omitempty"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required,simpleemail"`
	Phone     string    `json:"phone,omitempty"`
	EventDate string    `json:"eventDate" validate:"required"`
	Location  string    `json:"location" validate:"required"`
	Route     string    `json:"route,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// User-facing messages.
const (
	MsgMissing  = "Faltan campos obligatorios"
	MsgEmail    = "Email no válido"
	MsgBadBody  = "Solicitud no válida"
	MsgInternal = "Error interno del servidor"
	MsgAccepted = "Consulta recibida correctamente. Te contactaremos pronto."
)

// ValidationError describes why a submission was rejected.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// Validator checks submissions.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a validator with the simple e-mail rule registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate returns a *ValidationError if s is incomplete or malformed.
// Values are checked as submitted, so a whitespace-only field is present and
// an e-mail with surrounding spaces is malformed. Missing fields take
// precedence over a malformed e-mail.
func (v *Validator) Validate(s *Submission) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	missing, bad := []string{}, []string{}
	for _, fe := range ves {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		bad = append(bad, fe.Field())
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Message: MsgMissing}
	}
	return &ValidationError{Fields: bad, Message: MsgEmail}
}

// Sink receives accepted submissions.
type Sink interface {
	Submit(ctx context.Context, s Submission) error
}

// LogSink logs submissions and does nothing else.
type LogSink struct{}

func (LogSink) Submit(_ context.Context, s Submission) error {
	klog.Infof("contact form submission: id=%s at=%s name=%q email=%q phone=%q date=%q location=%q route=%q message=%q",
		s.ID, s.Received.Format(time.RFC3339), s.Name, s.Email, s.Phone, s.EventDate, s.Location, s.Route, s.Message)
	return nil
}
