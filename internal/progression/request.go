package progression

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrBadRequest marks a mutation request with an invalid shape.
var ErrBadRequest = errors.New("bad request")

// MaxAbsDelta bounds the change accepted in a single request.
const MaxAbsDelta = 1_000_000

// requestValidate checks request schemas.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()

	// Report fields by their JSON names.
	requestValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// UpdateRequest is the client-facing schema of a stat mutation.
//
// Category and Stat are required and at most 64 characters. Change is
// required and must lie within ±MaxAbsDelta; requests outside that bound
// are rejected with ErrBadRequest (HTTP 400) instead of being applied.
type UpdateRequest struct {
	Category string `json:"category" validate:"required,max=64"`
	Stat     string `json:"stat" validate:"required,max=64"`

	// Change is required; a pointer distinguishes an explicit 0 from absence.
	Change *int `json:"change" validate:"required,min=-1000000,max=1000000"`

	// Date is YYYY-MM-DD. Anything unparsable falls back to now.
	Date string `json:"date,omitempty" validate:"max=32"`
}

// Validate checks the request shape. Errors wrap ErrBadRequest.
func (r *UpdateRequest) Validate() error {
	err := requestValidate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return fmt.Errorf("%w: %s", ErrBadRequest, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrBadRequest, err)
}

// Mutation converts a validated request into a Mutation stamped relative to now.
func (r *UpdateRequest) Mutation(now time.Time, source string) Mutation {
	ts, _ := ResolveTimestamp(r.Date, now)
	delta := 0
	if r.Change != nil {
		delta = *r.Change
	}
	return Mutation{
		Category:  r.Category,
		Stat:      r.Stat,
		Delta:     delta,
		Timestamp: ts,
		Source:    source,
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
