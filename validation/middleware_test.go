package validation

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestConfigPresets(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   Config
	}{
		{"strict", StrictConfig(), Config{Enabled: true, Strict: true, EnableWarnings: true, FailOnWarnings: true}},
		{"lenient", LenientConfig(), Config{Enabled: true, EnableWarnings: true}},
		{"development", DevelopmentConfig(), Config{Enabled: true, EnableWarnings: true}},
		{"production", ProductionConfig(), Config{Enabled: true, Strict: true}},
		{"disabled", DisabledConfig(), Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config)
		})
	}
}

func validReceiptPayload() map[string]any {
	return map[string]any{
		"items": []any{
			map[string]any{
				"description":   "Espresso",
				"quantity":      "2",
				"unit_price":    "1.20",
				"vat_rate_code": "22",
			},
		},
		"cash_payment_amount": "2.40",
	}
}

func TestMiddleware_ValidateInput(t *testing.T) {
	mw := NewMiddleware(LenientConfig(), quietLogger())

	t.Run("valid payload passes", func(t *testing.T) {
		err := mw.ValidateInput(validReceiptPayload(), SchemaReceiptInput, "receipts.create")
		assert.NoError(t, err)
	})

	t.Run("invalid branded field fails with path", func(t *testing.T) {
		payload := validReceiptPayload()
		payload["items"].([]any)[0].(map[string]any)["quantity"] = "not-a-quantity"

		err := mw.ValidateInput(payload, SchemaReceiptInput, "receipts.create")
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "receipts.create", verr.Operation)
		require.Len(t, verr.Violations, 1)
		assert.Equal(t, CodeBrandMismatch, verr.Violations[0].Code)
		assert.Equal(t, "items[0].quantity", verr.Violations[0].Field)
	})

	t.Run("missing items fails", func(t *testing.T) {
		err := mw.ValidateInput(map[string]any{}, SchemaReceiptInput, "receipts.create")
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.HasCode(CodeRequiredField))
	})
}

func TestMiddleware_UnknownSchemaName(t *testing.T) {
	t.Run("strict rejects", func(t *testing.T) {
		mw := NewMiddleware(StrictConfig(), quietLogger())
		err := mw.ValidateInput(map[string]any{}, "no.such.schema", "receipts.create")
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.HasCode(CodeUnknownType))
	})

	t.Run("lenient treats as unconstrained", func(t *testing.T) {
		mw := NewMiddleware(LenientConfig(), quietLogger())
		err := mw.ValidateInput(map[string]any{"anything": "goes"}, "no.such.schema", "receipts.create")
		assert.NoError(t, err)
	})
}

func TestMiddleware_DisabledAndSkipList(t *testing.T) {
	t.Run("global kill-switch", func(t *testing.T) {
		mw := NewMiddleware(DisabledConfig(), quietLogger())
		err := mw.ValidateInput(map[string]any{}, SchemaReceiptInput, "receipts.create")
		assert.NoError(t, err)
		assert.False(t, mw.IsValidationEnabled("receipts.create"))
	})

	t.Run("skip list with glob", func(t *testing.T) {
		cfg := LenientConfig()
		cfg.SkipValidation = []string{"receipts.*", "ping"}
		mw := NewMiddleware(cfg, quietLogger())

		assert.NoError(t, mw.ValidateInput(map[string]any{}, SchemaReceiptInput, "receipts.create"))
		assert.False(t, mw.IsValidationEnabled("receipts.void"))
		assert.False(t, mw.IsValidationEnabled("ping"))
		assert.True(t, mw.IsValidationEnabled("merchants.create"))

		err := mw.ValidateInput(map[string]any{}, SchemaMerchantInput, "merchants.create")
		assert.Error(t, err, "operations off the skip list are still validated")
	})
}

func TestMiddleware_FailOnWarnings(t *testing.T) {
	cfg := LenientConfig()
	mw := NewMiddleware(cfg, quietLogger())
	mw.RegisterSchema("province.only", &Schema{
		Type:             TypeCustom,
		Required:         true,
		CustomValidation: AsCustom(ValidateProvinceCode),
	})

	t.Run("warning alone does not fail", func(t *testing.T) {
		assert.NoError(t, mw.ValidateInput("ZZ", "province.only", "pos.update"))
	})

	t.Run("promoted warning fails but keeps its severity tag", func(t *testing.T) {
		enabled := true
		mw.UpdateConfig(ConfigUpdate{FailOnWarnings: &enabled})

		err := mw.ValidateInput("ZZ", "province.only", "pos.update")
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Violations, 1)
		assert.Equal(t, CodeUnknownProvinceCode, verr.Violations[0].Code)
		assert.Equal(t, SeverityWarning, verr.Violations[0].Severity)
	})
}

func TestMiddleware_ValidateOutput(t *testing.T) {
	payload := map[string]any{}

	t.Run("inactive unless strict", func(t *testing.T) {
		mw := NewMiddleware(LenientConfig(), quietLogger())
		assert.NoError(t, mw.ValidateOutput(payload, SchemaReceiptInput, "receipts.create"))
	})

	t.Run("active in strict mode", func(t *testing.T) {
		mw := NewMiddleware(ProductionConfig(), quietLogger())
		assert.Error(t, mw.ValidateOutput(payload, SchemaReceiptInput, "receipts.create"))
	})
}

func TestMiddleware_UpdateConfigPartial(t *testing.T) {
	mw := NewMiddleware(LenientConfig(), quietLogger())

	strict := true
	mw.UpdateConfig(ConfigUpdate{Strict: &strict})

	got := mw.Configuration()
	assert.True(t, got.Strict)
	assert.True(t, got.Enabled, "untouched fields keep their value")
	assert.True(t, got.EnableWarnings)
}

func TestDefaultInstance(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	first := Default()
	assert.Same(t, first, Default(), "Default returns the shared instance")

	first.RegisterSchema("test.only", &Schema{Type: TypeString, Required: true})
	require.Error(t, first.ValidateInput(nil, "test.only", "test.op"))

	ResetDefault()
	rebuilt := Default()
	assert.NotSame(t, first, rebuilt)
	assert.NoError(t, rebuilt.ValidateInput(nil, "test.only", "test.op"), "rebuilt instance does not carry test schemas")
}
