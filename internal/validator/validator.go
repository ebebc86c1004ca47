package validator

// Validator bundles struct validation and business rule validation
// behind a single dependency services and handlers can share.
type Validator struct {
	business *BusinessValidator
}

// New creates a validator with all business rules registered
func New() *Validator {
	return &Validator{
		business: NewBusinessValidator(),
	}
}

// Validate validates a struct and returns an error when any rule fails
func (v *Validator) Validate(s interface{}) error {
	if errors := v.business.Validate(s); len(errors) > 0 {
		return errors
	}
	return nil
}

// GetBusinessValidator exposes the underlying business validator for
// rule sets that need more context than a single struct.
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}
