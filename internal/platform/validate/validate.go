// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Rules never stop at the first failure: every field is checked so the client
// can show all problems at once. Typed request structs are checked through
// their `validate` tags (go-playground/validator) and merge into the same list.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/taibuivan/tutora/internal/platform/apperr"
)

var (
	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

	// structValidator reports field paths using JSON names instead of Go names.
	structValidator = newStructValidator()
)

func newStructValidator() *validator.Validate {
	engine := validator.New(validator.WithRequiredStructEnabled())
	engine.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return engine
}

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// MaxBytes fails if the encoded length exceeds max bytes.
func (v *Validator) MaxBytes(field, value string, max int) *Validator {
	if len(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d bytes", max))
	}
	return v
}

// NoWhitespace fails if the value contains any Unicode space character.
func (v *Validator) NoWhitespace(field, value string) *Validator {
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		v.add(field, "Must not contain spaces")
	}
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("profile", profile == nil, "This field is required")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Struct runs the `validate` tags of target and records every failure under
// prefix (e.g. "profile.email"). A nil pointer target is skipped.
func (v *Validator) Struct(prefix string, target any) *Validator {
	err := structValidator.Struct(target)
	if err == nil {
		return v
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return v
		}
		v.add(prefix, "Invalid value")
		return v
	}

	for _, fieldError := range fieldErrors {
		v.add(joinPath(prefix, fieldError.Namespace()), describe(fieldError))
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method. Call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// joinPath drops the root struct name from a validator namespace and prefixes
// the remainder.
func joinPath(prefix, namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		path = namespace
	}
	if prefix == "" {
		return path
	}
	return prefix + "." + path
}

// describe turns a tag failure into a client-facing message.
func describe(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		if fieldError.Kind() == reflect.Slice {
			return fmt.Sprintf("Minimum %s items", fieldError.Param())
		}
		return fmt.Sprintf("Minimum %s characters", fieldError.Param())
	case "max":
		if fieldError.Kind() == reflect.Slice {
			return fmt.Sprintf("Maximum %s items", fieldError.Param())
		}
		return fmt.Sprintf("Maximum %s characters", fieldError.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fieldError.Param(), " ", ", ")
	case "datetime":
		return "Must be a date formatted as " + fieldError.Param()
	default:
		return "Failed rule: " + fieldError.Tag()
	}
}
