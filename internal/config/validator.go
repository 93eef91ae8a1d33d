package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateNetworkMode(cfg, errs)
	v.validatePort(cfg, errs)
	v.validateMaxConnections(cfg, errs)
	v.validateTokenTTL(cfg, errs)
	v.validateBootstrap(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateNetworkMode(cfg *Config, errs *ValidationError) {
	switch cfg.NetworkMode {
	case NetworkLocalhost, NetworkLAN, "":
	default:
		errs.Add("networkMode", fmt.Sprintf("must be %q or %q, got %q", NetworkLocalhost, NetworkLAN, cfg.NetworkMode))
	}
}

func (v *Validator) validatePort(cfg *Config, errs *ValidationError) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs.Add("port", "must be between 0 and 65535")
	}
}

func (v *Validator) validateMaxConnections(cfg *Config, errs *ValidationError) {
	if cfg.MaxConnections < 0 || cfg.MaxConnections > 65535 {
		errs.Add("maxConnections", "must be between 0 and 65535")
	}
}

func (v *Validator) validateTokenTTL(cfg *Config, errs *ValidationError) {
	if cfg.TokenTTLSeconds < 0 {
		errs.Add("tokenTtl", "must not be negative")
	}
}

func (v *Validator) validateBootstrap(cfg *Config, errs *ValidationError) {
	b := cfg.Bootstrap
	hasUsername := b.Username != ""
	hasPassword := b.Password != ""
	if hasUsername != hasPassword {
		errs.Add("bootstrapAdmin", "username and password must both be set or both be empty")
	}
}
