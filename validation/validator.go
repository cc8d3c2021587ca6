package validation

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Validate evaluates value against schema and returns every applicable issue.
// The traversal is depth-first and never short-circuits across sibling
// checks, so batch error reporting over a whole payload is possible from a
// single call. Validate never returns an error for data-shape problems and
// never panics, even when a user-supplied CustomValidation function does.
//
// A nil opts is equivalent to &Options{EnableWarnings: true}.
//
// Example:
//
//	res := validation.Validate(payload, receiptSchema, &validation.Options{Strict: true})
//	if !res.Valid {
//	    for _, issue := range res.Errors {
//	        fmt.Printf("%s: %s\n", issue.Field, issue.Message)
//	    }
//	}
func Validate(value any, schema *Schema, opts *Options) *Result {
	if opts == nil {
		opts = &Options{EnableWarnings: true}
	}

	c := &collector{}
	validateValue(value, schema, "", opts, c)

	res := &Result{
		Valid:  len(c.errors) == 0,
		Errors: c.errors,
	}
	// Warnings are always computed so that toggling EnableWarnings can never
	// change the error set; they are only filtered here.
	if opts.EnableWarnings {
		res.Warnings = c.warnings
	}
	return res
}

// MustValidate validates value and converts a failed result into a
// *ValidationError carrying all violations, tagged with the operation name.
// It is the error-returning counterpart of Validate for call sites that want
// a single error value instead of a Result.
func MustValidate(value any, schema *Schema, operation string) error {
	res := Validate(value, schema, &Options{EnableWarnings: true})
	if res.Valid {
		return nil
	}
	return newValidationError(operation, res.Errors)
}

// collector accumulates issues during a traversal, split by severity.
type collector struct {
	errors   []Issue
	warnings []Issue
}

func (c *collector) add(field, message string, code Code, severity Severity) {
	c.merge(Issue{Field: field, Message: message, Code: code, Severity: severity})
}

func (c *collector) merge(issue Issue) {
	if issue.Severity == SeverityWarning {
		c.warnings = append(c.warnings, issue)
		return
	}
	c.errors = append(c.errors, issue)
}

func validateValue(value any, schema *Schema, path string, opts *Options, c *collector) {
	if schema == nil {
		return
	}

	if isAbsent(value) {
		// An absent required value fails once and the branch is not
		// descended further; an absent optional value passes trivially.
		if schema.Required {
			c.add(path, "value is required", CodeRequiredField, SeverityError)
		}
		return
	}

	switch schema.Type {
	case TypeString:
		validateString(value, schema, path, c)
	case TypeNumber:
		validateNumber(value, schema, path, c)
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			c.add(path, "value must be a boolean", CodeInvalidType, SeverityError)
		}
	case TypeObject:
		validateObject(value, schema, path, opts, c)
	case TypeArray:
		validateArray(value, schema, path, opts, c)
	case TypeBranded:
		if schema.BrandValidator != nil && !schema.BrandValidator(value) {
			c.add(path, "value does not satisfy its branded type", CodeBrandMismatch, SeverityError)
		}
	case TypeCustom:
		// Only the custom function applies.
	}

	runCustomValidation(value, schema, path, c)
}

func validateString(value any, schema *Schema, path string, c *collector) {
	s, ok := value.(string)
	if !ok {
		// Format checks are meaningless against a non-string; stop here.
		c.add(path, "value must be a string", CodeInvalidType, SeverityError)
		return
	}

	length := utf8.RuneCountInString(s)
	if schema.MinLength != nil && length < *schema.MinLength {
		c.add(path, fmt.Sprintf("value must be at least %d characters", *schema.MinLength), CodeMinLength, SeverityError)
	}
	if schema.MaxLength != nil && length > *schema.MaxLength {
		c.add(path, fmt.Sprintf("value must be at most %d characters", *schema.MaxLength), CodeMaxLength, SeverityError)
	}
	if schema.Pattern != nil && !schema.Pattern.MatchString(s) {
		c.add(path, "value does not match the required pattern", CodePatternMismatch, SeverityError)
	}
	if len(schema.Enum) > 0 && !containsString(schema.Enum, s) {
		c.add(path, fmt.Sprintf("value must be one of %v", schema.Enum), CodeInvalidEnumValue, SeverityError)
	}
}

func validateNumber(value any, schema *Schema, path string, c *collector) {
	f, ok := toFloat64(value)
	if !ok || math.IsNaN(f) {
		c.add(path, "value must be a number", CodeInvalidType, SeverityError)
		return
	}

	if schema.Min != nil && f < *schema.Min {
		c.add(path, fmt.Sprintf("value must be at least %v", *schema.Min), CodeTooSmall, SeverityError)
	}
	if schema.Max != nil && f > *schema.Max {
		c.add(path, fmt.Sprintf("value must be at most %v", *schema.Max), CodeTooLarge, SeverityError)
	}
}

func validateObject(value any, schema *Schema, path string, opts *Options, c *collector) {
	m, ok := value.(map[string]any)
	if !ok {
		// Nothing to index into, so declared properties are not descended.
		c.add(path, "value must be an object", CodeInvalidType, SeverityError)
		return
	}

	if opts.Strict {
		unexpected := make([]string, 0)
		for key := range m {
			if _, declared := schema.Properties[key]; !declared {
				unexpected = append(unexpected, key)
			}
		}
		sort.Strings(unexpected)
		for _, key := range unexpected {
			c.add(joinField(path, key), "property is not allowed", CodeUnexpectedProperty, SeverityError)
		}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		validateValue(m[name], schema.Properties[name], joinField(path, name), opts, c)
	}
}

func validateArray(value any, schema *Schema, path string, opts *Options, c *collector) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		c.add(path, "value must be an array", CodeInvalidType, SeverityError)
		return
	}

	if schema.Items == nil {
		return
	}
	for i := 0; i < rv.Len(); i++ {
		validateValue(rv.Index(i).Interface(), schema.Items, path+"["+strconv.Itoa(i)+"]", opts, c)
	}
}

// runCustomValidation invokes the user-supplied function with panic
// containment: a panic is converted into one internal-error issue with a
// generic message, never surfaced to the caller.
func runCustomValidation(value any, schema *Schema, path string, c *collector) {
	if schema.CustomValidation == nil {
		return
	}

	for _, issue := range invokeCustom(schema.CustomValidation, value) {
		if issue.Field == "" {
			issue.Field = path
		} else if path != "" {
			issue.Field = path + "." + issue.Field
		}
		if issue.Severity == "" {
			issue.Severity = SeverityError
		}
		c.merge(issue)
	}
}

func invokeCustom(fn func(any) []Issue, value any) (issues []Issue) {
	defer func() {
		if r := recover(); r != nil {
			issues = []Issue{{
				Message:  "custom validation failed internally",
				Code:     CodeValidationInternalError,
				Severity: SeverityError,
			}}
		}
	}()
	return fn(value)
}

// isAbsent reports whether a value counts as missing: nil or empty string.
func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok && s == "" {
		return true
	}
	return false
}

func joinField(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// toFloat64 widens the numeric kinds a decoded payload may carry. Booleans
// and strings are not numbers, matching the strict type rules.
func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
