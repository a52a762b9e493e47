package attendance

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissingKeys is returned when a session is opened without a class or date.
	ErrMissingKeys = errors.New("class id and session date are required")
	// ErrInvalidKeys is returned when a key is present but malformed.
	ErrInvalidKeys = errors.New("invalid session keys")
)

var validate = validator.New()

// Keys identify one attendance session
type Keys struct {
	ClassID     string `json:"class_id" yaml:"class_id" validate:"required"`
	SessionDate string `json:"session_date" yaml:"session_date" validate:"required,datetime=2006-01-02"`
}

// Validate reports ErrMissingKeys or ErrInvalidKeys
func (k Keys) Validate() error {
	err := validate.Struct(k)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidKeys, err)
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s is empty", ErrMissingKeys, fe.Field())
		}
	}
	fe := fieldErrs[0]
	return fmt.Errorf("%w: %s %q must be a YYYY-MM-DD date", ErrInvalidKeys, fe.Field(), fe.Value())
}

func (k Keys) String() string {
	return k.ClassID + "@" + k.SessionDate
}
