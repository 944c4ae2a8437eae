package batch

// validator.go checks parsed rows against the hospital creation contract.
//
// Validation is pure: no I/O, no side effects, and malformed input is an
// expected, reportable condition rather than a program error. A row that
// fails validation never reaches the directory API.

import (
	"fmt"
	"regexp"

	"github.com/paribus/hospital-bulk/internal/directory"
)

// phoneRe accepts an optional leading +, then a digit, then at least three
// more digits, dashes, or spaces.
var phoneRe = regexp.MustCompile(`^\+?\d[\d\-\s]{3,}$`)

// ValidationError describes why a row was rejected.
type ValidationError struct {
	Field   string // column name
	Value   string // the offending value, empty for missing fields
	Message string // human-readable reason
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateRow checks one row and, when valid, returns the hospital record
// to send to the directory. Name and address are required non-empty; phone
// is optional but must match the expected format when present.
func ValidateRow(row Row) (directory.Hospital, *ValidationError) {
	name := row.Fields["name"]
	address := row.Fields["address"]
	phone := row.Fields["phone"]

	if name == "" {
		return directory.Hospital{}, &ValidationError{
			Field:   "name",
			Message: "required field is empty",
		}
	}

	if address == "" {
		return directory.Hospital{}, &ValidationError{
			Field:   "address",
			Message: "required field is empty",
		}
	}

	if phone != "" && !phoneRe.MatchString(phone) {
		return directory.Hospital{}, &ValidationError{
			Field:   "phone",
			Value:   phone,
			Message: "invalid phone format",
		}
	}

	return directory.Hospital{
		Name:    name,
		Address: address,
		Phone:   phone,
	}, nil
}
