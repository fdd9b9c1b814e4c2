package fostplus

import "fmt"

// APIError is a domain error carrying a machine-readable code.
type APIError struct {
	Code string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fostplus: %s", e.Code)
}

var (
	// ErrStreetNotFound is returned when a street query cannot be
	// disambiguated to exactly one result.
	ErrStreetNotFound = &APIError{Code: "invalid_streetname"}

	// ErrZipCodeNotFound is returned when a zip code yields no match.
	ErrZipCodeNotFound = &APIError{Code: "invalid_zipcode"}
)

// InitializationError means the app-settings resource was unreachable or
// did not declare a backend URL. It is fatal for the current operation.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("fostplus: endpoint discovery failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}
