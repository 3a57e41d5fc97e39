package etymology

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("relation", func(fl validator.FieldLevel) bool {
		return RelationType(fl.Field().String()).Valid()
	})
}

// ValidateWord checks a record's required fields.
func ValidateWord(w WordRecord) error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("%w: word %q: %w", ErrInvalidRecord, w.Word, formatValidationError(err))
	}
	return nil
}

// ValidateEdge checks a relationship's endpoints and type.
func ValidateEdge(e RelationshipEdge) error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: relationship %s->%s: %w", ErrInvalidRecord, e.SourceWordID, e.TargetWordID, formatValidationError(err))
	}
	return nil
}

// Validator exposes the shared validator instance to packages that
// validate their own structs the same way.
func Validator() *validator.Validate {
	return validate
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", e.Field())
		case "max":
			return fmt.Errorf("%s: must not exceed %s", e.Field(), e.Param())
		case "nefield":
			return fmt.Errorf("%s: must differ from %s", e.Field(), e.Param())
		case "relation":
			return fmt.Errorf("%s: unknown relationship type %q", e.Field(), e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", e.Field(), e.Tag())
		}
	}
	return err
}
