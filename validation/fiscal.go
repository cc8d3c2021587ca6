package validation

import (
	"fmt"
	"regexp"
)

// Fiscal rule library: pure Italy-specific format and checksum rules. Each
// rule returns a *Result on its own, independent of the generic schema
// engine, and each is also usable as a Schema CustomValidation through the
// AsCustom adapter.

var (
	vatNumberPattern    = regexp.MustCompile(`^[0-9]{11}$`)
	postalCodePattern   = regexp.MustCompile(`^[0-9]{5}$`)
	provinceCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

	amountPattern   = regexp.MustCompile(`^-?[0-9]{1,10}\.[0-9]{2}$`)
	quantityPattern = regexp.MustCompile(`^[0-9]{1,10}(\.[0-9]{1,8})?$`)
	serialPattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-]{1,99}$`)
)

// knownProvinceCodes is the allow-list of the 110 Italian province
// abbreviations. A well-formed code outside this set is still valid but
// produces an UNKNOWN_PROVINCE_CODE warning.
var knownProvinceCodes = map[string]struct{}{}

func init() {
	codes := []string{
		"AG", "AL", "AN", "AO", "AP", "AQ", "AR", "AT", "AV", "BA",
		"BG", "BI", "BL", "BN", "BO", "BR", "BS", "BT", "BZ", "CA",
		"CB", "CE", "CH", "CI", "CL", "CN", "CO", "CR", "CS", "CT",
		"CZ", "EN", "FC", "FE", "FG", "FI", "FM", "FR", "GE", "GO",
		"GR", "IM", "IS", "KR", "LC", "LE", "LI", "LO", "LT", "LU",
		"MB", "MC", "ME", "MI", "MN", "MO", "MS", "MT", "NA", "NO",
		"NU", "OG", "OR", "OT", "PA", "PC", "PD", "PE", "PG", "PI",
		"PN", "PO", "PR", "PT", "PU", "PV", "PZ", "RA", "RC", "RE",
		"RG", "RI", "RM", "RN", "RO", "SA", "SI", "SO", "SP", "SR",
		"SS", "SV", "TA", "TE", "TN", "TO", "TP", "TR", "TS", "TV",
		"UD", "VA", "VB", "VC", "VE", "VI", "VR", "VS", "VT", "VV",
	}
	for _, c := range codes {
		knownProvinceCodes[c] = struct{}{}
	}
}

// ValidateVATNumber checks an Italian partita IVA: exactly 11 digits and a
// valid check digit. Non-string input fails with INVALID_TYPE, a wrong
// length or charset with INVALID_FORMAT, and a correct-looking number with a
// bad check digit with INVALID_VAT_CHECKSUM.
func ValidateVATNumber(value any) *Result {
	s, ok := value.(string)
	if !ok {
		return singleError("vat_number", "VAT number must be a string", CodeInvalidType)
	}
	if !vatNumberPattern.MatchString(s) {
		return singleError("vat_number", "VAT number must be exactly 11 digits", CodeInvalidFormat)
	}
	if !vatChecksumOK(s) {
		return singleError("vat_number", "VAT number has an invalid check digit", CodeInvalidVATChecksum)
	}
	return &Result{Valid: true}
}

// vatChecksumOK implements the Italian VAT check-digit algorithm: digits at
// even 0-based positions are summed as-is; digits at odd positions are
// doubled, with 9 subtracted when the doubling exceeds 9; the complement to
// 10 of (total mod 10), with 0 mapping to 0, must equal the 11th digit.
func vatChecksumOK(s string) bool {
	total := 0
	for i := 0; i < 10; i++ {
		d := int(s[i] - '0')
		if i%2 == 0 {
			total += d
			continue
		}
		d *= 2
		if d > 9 {
			d -= 9
		}
		total += d
	}
	check := (10 - total%10) % 10
	return check == int(s[10]-'0')
}

// ValidatePostalCode checks an Italian CAP: exactly 5 digits.
func ValidatePostalCode(value any) *Result {
	s, ok := value.(string)
	if !ok {
		return singleError("zip_code", "postal code must be a string", CodeInvalidType)
	}
	if !postalCodePattern.MatchString(s) {
		return singleError("zip_code", "postal code must be exactly 5 digits", CodeInvalidFormat)
	}
	return &Result{Valid: true}
}

// ValidateProvinceCode checks an Italian province abbreviation: exactly two
// uppercase letters. A well-formed code outside the known allow-list is
// still VALID and only carries an UNKNOWN_PROVINCE_CODE warning; callers
// that want to reject unknown provinces must promote warnings via the
// middleware's FailOnWarnings configuration.
func ValidateProvinceCode(value any) *Result {
	s, ok := value.(string)
	if !ok {
		return singleError("province", "province code must be a string", CodeInvalidType)
	}
	if !provinceCodePattern.MatchString(s) {
		return singleError("province", "province code must be two uppercase letters", CodeInvalidFormat)
	}
	if _, known := knownProvinceCodes[s]; !known {
		return &Result{
			Valid: true,
			Warnings: []Issue{{
				Field:    "province",
				Message:  fmt.Sprintf("province code %q is not a known Italian province", s),
				Code:     CodeUnknownProvinceCode,
				Severity: SeverityWarning,
			}},
		}
	}
	return &Result{Valid: true}
}

// Brand validators for the string-backed domain values the platform's
// resource payloads carry. These plug into Schema.BrandValidator.

// IsAmount accepts monetary amounts rendered with exactly two decimals,
// e.g. "12.50" or "-3.00".
func IsAmount(value any) bool {
	s, ok := value.(string)
	return ok && amountPattern.MatchString(s)
}

// IsQuantity accepts non-negative quantities with up to eight decimals.
func IsQuantity(value any) bool {
	s, ok := value.(string)
	return ok && quantityPattern.MatchString(s)
}

// IsSerialNumber accepts PEM device serial numbers: alphanumeric with
// hyphens, 2 to 100 characters.
func IsSerialNumber(value any) bool {
	s, ok := value.(string)
	return ok && serialPattern.MatchString(s)
}

// AsCustom adapts a fiscal rule into a Schema CustomValidation function. The
// rule's issues are re-rooted at the schema field the adapter is attached
// to, so paths compose with the engine's own path building.
func AsCustom(rule func(any) *Result) func(any) []Issue {
	return func(value any) []Issue {
		res := rule(value)
		issues := make([]Issue, 0, len(res.Errors)+len(res.Warnings))
		for _, it := range append(res.Errors, res.Warnings...) {
			it.Field = ""
			issues = append(issues, it)
		}
		return issues
	}
}

func singleError(field, message string, code Code) *Result {
	return &Result{
		Valid: false,
		Errors: []Issue{{
			Field:    field,
			Message:  message,
			Code:     code,
			Severity: SeverityError,
		}},
	}
}
