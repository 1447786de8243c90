package models

// Severity levels for validation findings. Errors block the write; warnings
// are advisory and never block.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError is a single finding against a candidate workshop or
// assignment.
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ValidationResult aggregates the outcome of a validation run.
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// NewValidationResult builds a result whose validity follows from the
// absence of blocking errors.
func NewValidationResult(errors, warnings []ValidationError) ValidationResult {
	if errors == nil {
		errors = []ValidationError{}
	}
	if warnings == nil {
		warnings = []ValidationError{}
	}
	return ValidationResult{
		IsValid:  len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}
