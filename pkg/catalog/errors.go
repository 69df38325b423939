package catalog

import "fmt"

// Catalog error codes
const (
	CodeEmptyCatalog   = "EMPTY_CATALOG"
	CodeInvalidField   = "INVALID_FIELD"
	CodeDuplicateField = "DUPLICATE_FIELD"
	CodeParse          = "CATALOG_PARSE_ERROR"
	CodeUnknownType    = "UNKNOWN_TYPE"
)

// CatalogError represents a catalog construction error
type CatalogError struct {
	Message string
	Code    string
	Err     error
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// NewCatalogError creates a new catalog error
func NewCatalogError(message, code string, err error) *CatalogError {
	return &CatalogError{
		Message: message,
		Code:    code,
		Err:     err,
	}
}

// ParseError creates a catalog parsing error
func ParseError(err error) *CatalogError {
	return &CatalogError{
		Message: "Catalog parsing failed",
		Code:    CodeParse,
		Err:     err,
	}
}
