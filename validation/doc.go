// Package validation implements the runtime validation engine of the
// A-Cube e-receipts SDK: a schema-driven validator for nested objects,
// arrays and branded domain types, an Italian fiscal rule library (VAT
// checksum, postal codes, province codes), and a configurable middleware
// that binds named schemas to resource operations.
//
// # Validating a value directly
//
//	schema := &validation.Schema{
//	    Type:     validation.TypeObject,
//	    Required: true,
//	    Properties: map[string]*validation.Schema{
//	        "name": {Type: validation.TypeString, Required: true},
//	    },
//	}
//
//	res := validation.Validate(map[string]any{"name": "A"}, schema, nil)
//	fmt.Println(res.Valid) // true
//
// # Using the middleware
//
// Resource code validates inputs by schema name before issuing a request:
//
//	mw := validation.NewMiddleware(validation.ProductionConfig(), nil)
//	if err := mw.ValidateInput(payload, validation.SchemaReceiptInput, "receipts.create"); err != nil {
//	    var verr *validation.ValidationError
//	    if errors.As(err, &verr) {
//	        // render verr.Violations per field
//	    }
//	}
//
// The validator itself never returns an error for data-shape problems and
// never panics: user-supplied custom validation functions run with panic
// containment and a panic is reported as a single VALIDATION_INTERNAL_ERROR
// issue with a generic message.
//
// Warnings form a second severity channel. They never affect Result.Valid;
// configurations that want warning-free payloads promote them through the
// middleware's FailOnWarnings flag instead.
package validation
