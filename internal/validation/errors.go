package validation

import (
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
)

// Error codes attached to individual field errors. The caller routes each
// error to the originating step/field, so errors are always a structured
// list, never one opaque message.
const (
	CodeRequired     = "required"
	CodeInvalid      = "invalid_format"
	CodeCrossField   = "cross_field"
	CodeDuplicate    = "duplicate"
	CodeJurisdiction = "jurisdiction"
)

// FieldError is a single field-attributable validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorList accumulates field errors during a validation pass.
type ErrorList []FieldError

func (l *ErrorList) add(field, code, message string) {
	*l = append(*l, FieldError{Field: field, Code: code, Message: message})
}

// HasField reports whether any error is attributed to the named field.
func (l ErrorList) HasField(field string) bool {
	for _, fe := range l {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// AsError converts the list into a typed validation error, or nil when empty.
// Jurisdictional failures get their own code so callers can distinguish
// "change the field" from "change the POA type or state".
func (l ErrorList) AsError() *pkgerrors.Error {
	if len(l) == 0 {
		return nil
	}
	code := pkgerrors.CodeValidation
	allJurisdictional := true
	for _, fe := range l {
		if fe.Code != CodeJurisdiction {
			allJurisdictional = false
			break
		}
	}
	if allJurisdictional {
		code = pkgerrors.CodeJurisdiction
	}
	return pkgerrors.New(code, "validation failed").WithDetails(map[string]any{
		"errors": []FieldError(l),
	})
}
