package validator

// Validator validates tagged structs. A failed validation returns an error
// describing every offending field.
type Validator interface {
	Validate(data any) error
}
