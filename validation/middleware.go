package validation

import (
	"sync"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

// Config controls middleware behavior. The zero value disables everything;
// use one of the preset constructors for sensible starting points.
type Config struct {
	// Enabled is the global kill-switch. When false every Validate* call is
	// a no-op.
	Enabled bool

	// Strict rejects unknown object properties, rejects references to
	// unregistered schema names, and activates output validation.
	Strict bool

	// EnableWarnings includes warnings in results. Warnings are computed
	// regardless and only filtered, so this never changes the error set.
	EnableWarnings bool

	// FailOnWarnings promotes warnings to errors for the purpose of failing
	// a call, without rewriting their severity tag.
	FailOnWarnings bool

	// SkipValidation lists operation names bypassed entirely. Entries are
	// glob patterns ("receipts.*" skips every receipt operation).
	SkipValidation []string
}

// Preset configurations. These are pure data; no behavior beyond the field
// values.

// StrictConfig enables validation with strict schemas and promotes warnings
// to failures.
func StrictConfig() Config {
	return Config{Enabled: true, Strict: true, EnableWarnings: true, FailOnWarnings: true}
}

// LenientConfig enables validation without strict property checks.
func LenientConfig() Config {
	return Config{Enabled: true, EnableWarnings: true}
}

// DevelopmentConfig enables validation with warnings surfaced but not fatal.
func DevelopmentConfig() Config {
	return Config{Enabled: true, EnableWarnings: true}
}

// ProductionConfig enables strict validation with warnings suppressed.
func ProductionConfig() Config {
	return Config{Enabled: true, Strict: true}
}

// DisabledConfig turns the middleware off entirely.
func DisabledConfig() Config {
	return Config{}
}

// ConfigUpdate is a partial configuration: nil fields keep the current
// value. Used with UpdateConfig for runtime reconfiguration.
type ConfigUpdate struct {
	Enabled        *bool
	Strict         *bool
	EnableWarnings *bool
	FailOnWarnings *bool
	SkipValidation []string
}

// Middleware binds named schemas to operations and is the entry point
// resource code calls before issuing a request. All methods are safe for
// concurrent use.
//
// Example:
//
//	mw := validation.NewMiddleware(validation.ProductionConfig(), nil)
//	mw.RegisterSchema("receipt.input", receiptSchema)
//
//	if err := mw.ValidateInput(payload, "receipt.input", "receipts.create"); err != nil {
//	    return err
//	}
type Middleware struct {
	mu      sync.RWMutex
	config  Config
	schemas map[string]*Schema
	skip    []glob.Glob
	logger  *logrus.Logger
}

// NewMiddleware creates a middleware with the given configuration and
// registers the platform's built-in resource schemas. A nil logger falls
// back to the logrus standard logger.
func NewMiddleware(config Config, logger *logrus.Logger) *Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := &Middleware{
		config:  config,
		schemas: make(map[string]*Schema),
		logger:  logger,
	}
	m.compileSkipList(config.SkipValidation)
	for name, schema := range builtinSchemas() {
		m.schemas[name] = schema
	}
	return m
}

// RegisterSchema binds a schema to a name. Re-registering a name replaces
// the previous schema.
func (m *Middleware) RegisterSchema(name string, schema *Schema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[name] = schema
}

// ValidateInput validates data against the named schema before a request is
// issued. It returns nil when validation passes, is disabled, or the
// operation is on the skip list, and a *ValidationError otherwise.
func (m *Middleware) ValidateInput(data any, schemaName, operation string) error {
	return m.validate(data, schemaName, operation)
}

// ValidateOutput validates server responses against the named schema. It is
// diagnostic and only active when the configuration is strict; in normal
// operation it is a no-op.
func (m *Middleware) ValidateOutput(data any, schemaName, operation string) error {
	m.mu.RLock()
	strict := m.config.Strict
	m.mu.RUnlock()
	if !strict {
		return nil
	}
	return m.validate(data, schemaName, operation)
}

// IsValidationEnabled reports whether the given operation would actually be
// validated under the current configuration.
func (m *Middleware) IsValidationEnabled(operation string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Enabled && !m.skippedLocked(operation)
}

// UpdateConfig applies a partial configuration update atomically.
func (m *Middleware) UpdateConfig(update ConfigUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if update.Enabled != nil {
		m.config.Enabled = *update.Enabled
	}
	if update.Strict != nil {
		m.config.Strict = *update.Strict
	}
	if update.EnableWarnings != nil {
		m.config.EnableWarnings = *update.EnableWarnings
	}
	if update.FailOnWarnings != nil {
		m.config.FailOnWarnings = *update.FailOnWarnings
	}
	if update.SkipValidation != nil {
		m.config.SkipValidation = update.SkipValidation
		m.compileSkipList(update.SkipValidation)
	}
}

// Configuration returns a copy of the current configuration.
func (m *Middleware) Configuration() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *Middleware) validate(data any, schemaName, operation string) error {
	m.mu.RLock()
	cfg := m.config
	schema, registered := m.schemas[schemaName]
	skipped := m.skippedLocked(operation)
	m.mu.RUnlock()

	if !cfg.Enabled || skipped {
		return nil
	}

	if !registered {
		// Unknown schema names are rejected only in strict mode; otherwise
		// the operation is treated as unconstrained.
		if cfg.Strict {
			return newValidationError(operation, []Issue{{
				Message:  "no schema registered under " + schemaName,
				Code:     CodeUnknownType,
				Severity: SeverityError,
			}})
		}
		m.logger.WithFields(logrus.Fields{
			"schema":    schemaName,
			"operation": operation,
		}).Debug("schema not registered, skipping validation")
		return nil
	}

	res := Validate(data, schema, &Options{
		Strict:         cfg.Strict,
		EnableWarnings: cfg.EnableWarnings || cfg.FailOnWarnings,
	})

	violations := res.Errors
	if cfg.FailOnWarnings && len(res.Warnings) > 0 {
		// Promoted warnings keep their warning severity tag.
		violations = append(append([]Issue{}, violations...), res.Warnings...)
	}

	if len(violations) == 0 {
		return nil
	}

	verr := newValidationError(operation, violations)
	m.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"schema":     schemaName,
		"violations": len(violations),
		"request_id": verr.RequestID,
	}).Warn("validation failed")
	return verr
}

func (m *Middleware) skippedLocked(operation string) bool {
	for _, g := range m.skip {
		if g.Match(operation) {
			return true
		}
	}
	return false
}

// compileSkipList pre-compiles skip patterns; invalid patterns are dropped
// with a warning rather than failing configuration.
func (m *Middleware) compileSkipList(patterns []string) {
	m.skip = m.skip[:0]
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			m.logger.WithField("pattern", p).Warn("invalid skip pattern ignored")
			continue
		}
		m.skip = append(m.skip, g)
	}
}

// Process-wide default instance, constructed lazily at first use. Explicit
// reset keeps tests isolated from each other.

var (
	defaultMu sync.Mutex
	defaultMW *Middleware
)

// Default returns the shared middleware instance, creating it with
// LenientConfig on first use.
func Default() *Middleware {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultMW == nil {
		defaultMW = NewMiddleware(LenientConfig(), nil)
	}
	return defaultMW
}

// ResetDefault discards the shared instance so the next Default call
// rebuilds it from scratch.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultMW = nil
}
