package validation

import "regexp"

// Built-in schemas for the platform's resource payloads. These are the
// definitions resource code refers to by name through the middleware, e.g.
// ValidateInput(payload, "receipt.input", "receipts.create").

// Schema names registered by default on every Middleware.
const (
	SchemaReceiptInput    = "receipt.input"
	SchemaMerchantInput   = "merchant.input"
	SchemaCashierInput    = "cashier.input"
	SchemaPointOfSale     = "pos.input"
	SchemaCashRegister    = "cash-register.input"
	SchemaAddress         = "address"
	SchemaReceiptReturn   = "receipt.return"
	SchemaReceiptVoidData = "receipt.void"
)

var (
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	uuidPattern    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	receiptDocCode = regexp.MustCompile(`^[0-9A-Za-z\-]{1,40}$`)
)

// vatRateCodes are the Agenzia delle Entrate VAT rate/nature codes accepted
// on receipt items.
var vatRateCodes = []string{
	"4", "5", "10", "22",
	"N1", "N2", "N3", "N4", "N5", "N6",
}

func addressSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"street_address": {Type: TypeString, Required: true, MaxLength: IntPtr(200)},
			"city":           {Type: TypeString, Required: true, MaxLength: IntPtr(100)},
			"zip_code":       {Type: TypeCustom, Required: true, CustomValidation: AsCustom(ValidatePostalCode)},
			"province":       {Type: TypeCustom, Required: true, CustomValidation: AsCustom(ValidateProvinceCode)},
		},
	}
}

func receiptItemSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"description": {Type: TypeString, Required: true, MinLength: IntPtr(1), MaxLength: IntPtr(1000)},
			"quantity":    {Type: TypeBranded, Required: true, BrandValidator: IsQuantity},
			"unit_price":  {Type: TypeBranded, Required: true, BrandValidator: IsAmount},
			"vat_rate_code": {
				Type: TypeString, Required: true, Enum: vatRateCodes,
			},
			"discount":                   {Type: TypeBranded, BrandValidator: IsAmount},
			"simplified_vat_allocation":  {Type: TypeBoolean},
			"is_down_payment_or_voucher": {Type: TypeBoolean},
		},
	}
}

func receiptInputSchema() *Schema {
	return &Schema{
		Type:     TypeObject,
		Required: true,
		Properties: map[string]*Schema{
			"items": {
				Type:     TypeArray,
				Required: true,
				Items:    receiptItemSchema(),
			},
			"customer_lottery_code": {Type: TypeString, MinLength: IntPtr(8), MaxLength: IntPtr(8)},
			"invoice_issuing":       {Type: TypeBoolean},
			"uncollected_dcr_to_ssn": {
				Type: TypeBoolean,
			},
			"services_uncollected_amount": {Type: TypeBranded, BrandValidator: IsAmount},
			"goods_uncollected_amount":    {Type: TypeBranded, BrandValidator: IsAmount},
			"cash_payment_amount":         {Type: TypeBranded, BrandValidator: IsAmount},
			"electronic_payment_amount":   {Type: TypeBranded, BrandValidator: IsAmount},
			"ticket_restaurant_payment_amount": {
				Type: TypeBranded, BrandValidator: IsAmount,
			},
			"ticket_restaurant_quantity": {Type: TypeNumber, Min: Float64Ptr(0), Max: Float64Ptr(10000)},
		},
	}
}

func merchantInputSchema() *Schema {
	return &Schema{
		Type:     TypeObject,
		Required: true,
		Properties: map[string]*Schema{
			"fiscal_id": {Type: TypeCustom, Required: true, CustomValidation: AsCustom(ValidateVATNumber)},
			"name":      {Type: TypeString, Required: true, MinLength: IntPtr(1), MaxLength: IntPtr(200)},
			"email":     {Type: TypeString, Required: true, Pattern: emailPattern, MaxLength: IntPtr(254)},
			"password":  {Type: TypeString, MinLength: IntPtr(8), MaxLength: IntPtr(128)},
			"address":   addressSchema(),
		},
	}
}

func cashierInputSchema() *Schema {
	return &Schema{
		Type:     TypeObject,
		Required: true,
		Properties: map[string]*Schema{
			"email":    {Type: TypeString, Required: true, Pattern: emailPattern, MaxLength: IntPtr(254)},
			"password": {Type: TypeString, Required: true, MinLength: IntPtr(8), MaxLength: IntPtr(128)},
		},
	}
}

func pointOfSaleSchema() *Schema {
	return &Schema{
		Type:     TypeObject,
		Required: true,
		Properties: map[string]*Schema{
			"serial_number": {Type: TypeBranded, Required: true, BrandValidator: IsSerialNumber},
			"address":       addressSchema(),
		},
	}
}

func cashRegisterSchema() *Schema {
	return &Schema{
		Type:     TypeObject,
		Required: true,
		Properties: map[string]*Schema{
			"pem_serial_number": {Type: TypeBranded, Required: true, BrandValidator: IsSerialNumber},
			"name":              {Type: TypeString, Required: true, MinLength: IntPtr(1), MaxLength: IntPtr(200)},
		},
	}
}

func receiptReturnSchema() *Schema {
	return &Schema{
		Type:     TypeObject,
		Required: true,
		Properties: map[string]*Schema{
			"document_number":    {Type: TypeString, Required: true, Pattern: receiptDocCode},
			"document_date":      {Type: TypeString, Required: true, Pattern: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
			"lottery_code":       {Type: TypeString, MinLength: IntPtr(8), MaxLength: IntPtr(8)},
			"pem_serial_number":  {Type: TypeBranded, BrandValidator: IsSerialNumber},
			"items":              {Type: TypeArray, Required: true, Items: receiptItemSchema()},
			"proof_of_purchase_id": {
				Type: TypeString, Pattern: uuidPattern,
			},
		},
	}
}

func receiptVoidSchema() *Schema {
	return &Schema{
		Type:     TypeObject,
		Required: true,
		Properties: map[string]*Schema{
			"document_number": {Type: TypeString, Required: true, Pattern: receiptDocCode},
			"document_date":   {Type: TypeString, Required: true, Pattern: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
			"reason":          {Type: TypeString, MaxLength: IntPtr(500)},
		},
	}
}

func builtinSchemas() map[string]*Schema {
	return map[string]*Schema{
		SchemaReceiptInput:    receiptInputSchema(),
		SchemaMerchantInput:   merchantInputSchema(),
		SchemaCashierInput:    cashierInputSchema(),
		SchemaPointOfSale:     pointOfSaleSchema(),
		SchemaCashRegister:    cashRegisterSchema(),
		SchemaAddress:         addressSchema(),
		SchemaReceiptReturn:   receiptReturnSchema(),
		SchemaReceiptVoidData: receiptVoidSchema(),
	}
}
