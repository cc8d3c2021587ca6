package validation

import "regexp"

// SchemaType identifies which family of checks a Schema applies.
type SchemaType string

const (
	// TypeString validates string values and their length/pattern/enum constraints.
	TypeString SchemaType = "string"
	// TypeNumber validates numeric values and their min/max constraints.
	TypeNumber SchemaType = "number"
	// TypeBoolean validates strict booleans. Strings like "true" or numeric 1 fail.
	TypeBoolean SchemaType = "boolean"
	// TypeArray validates slices, applying Items to every element.
	TypeArray SchemaType = "array"
	// TypeObject validates maps, applying Properties to declared fields.
	TypeObject SchemaType = "object"
	// TypeBranded validates string-backed domain values via a BrandValidator
	// predicate (e.g. a monetary Amount as opposed to an arbitrary string).
	TypeBranded SchemaType = "branded"
	// TypeCustom runs only the CustomValidation function.
	TypeCustom SchemaType = "custom"
)

// Schema describes the constraints for one value. Schemas nest arbitrarily
// through Properties and Items. A Schema must not be mutated while a
// Validate call is traversing it; the engine itself is read-only.
//
// Example:
//
//	schema := &validation.Schema{
//	    Type:     validation.TypeObject,
//	    Required: true,
//	    Properties: map[string]*validation.Schema{
//	        "description": {Type: validation.TypeString, Required: true, MaxLength: validation.IntPtr(1000)},
//	        "quantity":    {Type: validation.TypeBranded, Required: true, BrandValidator: validation.IsQuantity},
//	    },
//	}
type Schema struct {
	// Type selects the check family. Required on every schema.
	Type SchemaType

	// Required makes absent values (nil or empty string) fail with
	// CodeRequiredField. When false, absent values pass trivially and no
	// further checks run.
	Required bool

	// MinLength and MaxLength bound string length (string type only).
	MinLength *int
	MaxLength *int

	// Pattern must match the whole value (string type only).
	Pattern *regexp.Regexp

	// Enum is the ordered set of allowed literal values (string type only).
	Enum []string

	// Min and Max bound numeric values (number type only).
	Min *float64
	Max *float64

	// Properties maps field names to nested schemas (object type only).
	Properties map[string]*Schema

	// Items is applied to every element (array type only).
	Items *Schema

	// BrandValidator is the predicate for branded types. Returning false
	// emits CodeBrandMismatch.
	BrandValidator func(value any) bool

	// CustomValidation runs after the structural checks and may return any
	// number of issues with their own severity. A panic inside the function
	// is caught and converted into a single CodeValidationInternalError
	// issue; it never propagates to the caller.
	CustomValidation func(value any) []Issue
}

// Severity distinguishes blocking errors from advisory warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a stable machine-readable identifier for a validation failure.
type Code string

// Structural codes emitted by the schema validator.
const (
	CodeRequiredField           Code = "REQUIRED_FIELD"
	CodeInvalidType             Code = "INVALID_TYPE"
	CodeMinLength               Code = "MIN_LENGTH"
	CodeMaxLength               Code = "MAX_LENGTH"
	CodePatternMismatch         Code = "PATTERN_MISMATCH"
	CodeInvalidEnumValue        Code = "INVALID_ENUM_VALUE"
	CodeTooSmall                Code = "TOO_SMALL"
	CodeTooLarge                Code = "TOO_LARGE"
	CodeUnexpectedProperty      Code = "UNEXPECTED_PROPERTY"
	CodeBrandMismatch           Code = "BRAND_MISMATCH"
	CodeValidationInternalError Code = "VALIDATION_INTERNAL_ERROR"
)

// Fiscal-domain codes emitted by the fiscal rule library.
const (
	CodeInvalidFormat       Code = "INVALID_FORMAT"
	CodeInvalidVATChecksum  Code = "INVALID_VAT_CHECKSUM"
	CodeUnknownProvinceCode Code = "UNKNOWN_PROVINCE_CODE"
)

// CodeUnknownType is raised by the middleware when a referenced schema name
// has no registered definition and the configuration is strict.
const CodeUnknownType Code = "UNKNOWN_TYPE"

// Issue is one validation finding against a single field.
type Issue struct {
	// Field is the dot/bracket path to the offending value, e.g.
	// "items[2].description". Empty for the root value.
	Field string `json:"field"`
	// Message is a human-readable description of the failure.
	Message string `json:"message"`
	// Code is the machine-readable failure code.
	Code Code `json:"code"`
	// Severity is error or warning.
	Severity Severity `json:"severity"`
}

// Result is the outcome of validating one value against one schema.
// Valid is true exactly when Errors is empty; warnings never affect Valid.
type Result struct {
	Valid    bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Options tune a single Validate call.
type Options struct {
	// Strict rejects object properties not declared in the schema.
	Strict bool
	// EnableWarnings includes warnings in the result. Warnings are computed
	// either way, so toggling this never changes the error set.
	EnableWarnings bool
}

// IntPtr is a convenience for building schema literals.
func IntPtr(v int) *int { return &v }

// Float64Ptr is a convenience for building schema literals.
func Float64Ptr(v float64) *float64 { return &v }
