package validator

// Validator validates structs using their field tags.
type Validator interface {
	// Validate returns nil when data passes validation.
	Validate(data any) error
}
