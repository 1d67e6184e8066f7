// Package apperr defines the error codes the service returns and how each one
// is classified and surfaced to clients.
package apperr

import (
	"net/http"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// Kind groups error codes by how they are reported to the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

const (
	CodeUsernameTooShort = "USERNAME_TOO_SHORT"
	CodePasswordTooShort = "PASSWORD_TOO_SHORT"
	CodeUsernameTaken    = "USERNAME_TAKEN"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeImageTooLarge    = "IMAGE_TOO_LARGE"

	CodeUserNotFound = "USER_NOT_FOUND"
	CodePostNotFound = "POST_NOT_FOUND"

	CodeTokenMissing      = "TOKEN_MISSING"
	CodeIncorrectPassword = "INCORRECT_PASSWORD"

	CodeTokenInvalidSignature = "TOKEN_INVALID_SIGNATURE"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeTokenMalformed        = "TOKEN_MALFORMED"
	CodeForbidden             = "FORBIDDEN"

	CodeHashCorrupt       = "HASH_CORRUPT"
	CodeMediaUploadFailed = "MEDIA_UPLOAD_FAILED"
	CodeInternal          = "INTERNAL"
)

// FieldKey is the oops context key naming the offending input field.
const FieldKey = "field"

var kinds = map[string]Kind{
	CodeUsernameTooShort: KindValidation,
	CodePasswordTooShort: KindValidation,
	CodeUsernameTaken:    KindValidation,
	CodeInvalidInput:     KindValidation,
	CodeImageTooLarge:    KindValidation,

	CodeUserNotFound: KindNotFound,
	CodePostNotFound: KindNotFound,

	CodeTokenMissing:      KindUnauthorized,
	CodeIncorrectPassword: KindUnauthorized,

	CodeTokenInvalidSignature: KindForbidden,
	CodeTokenExpired:          KindForbidden,
	CodeTokenMalformed:        KindForbidden,
	CodeForbidden:             KindForbidden,
}

// Code returns the oops code carried by err, or "" for plain errors.
func Code(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// KindOf classifies err. Unknown codes and plain errors are internal.
func KindOf(err error) Kind {
	if k, ok := kinds[Code(err)]; ok {
		return k
	}
	return KindInternal
}

// Field returns the input field an error refers to, if any.
func Field(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	field, _ := oopsErr.Context()[FieldKey].(string)
	return field
}

// HTTPStatus maps a Kind to the response status code.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show a client. Internal errors never
// expose their cause.
func PublicMessage(err error) string {
	if KindOf(err) == KindInternal {
		return "internal server error"
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}

// LogError logs err with its code and oops context as structured fields.
func LogError(logger logrus.FieldLogger, msg string, err error) {
	fields := logrus.Fields{"error": err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := Code(err); code != "" {
			fields["code"] = code
		}
		for k, v := range oopsErr.Context() {
			fields[k] = v
		}
	}
	logger.WithFields(fields).Error(msg)
}
