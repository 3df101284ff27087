// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package errors provides coded, structured errors for the CuraDocs backend.
// Every failure that crosses a package boundary carries a machine-readable
// Code; HTTPStatus maps the code's reason suffix to a response status so
// handlers never hand-pick status codes.
package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreChatNotFound      Code = "store.chat.get.not_found"
	CodeStoreChatAppendInvalid Code = "store.chat.append.invalid_input"
	CodeStoreProfileNotFound   Code = "store.profile.get.not_found"
	CodeStoreDatabaseFailure   Code = "store.database.failure"
	CodeStoreBackendUnknown    Code = "store.backend.invalid_value"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeProviderRequestInvalid  Code = "provider.request.invalid"
	CodeProviderResponseInvalid Code = "provider.response.invalid"
	CodeProviderUpstreamFailure Code = "provider.upstream.failure"

	CodeAssistantMessageInvalid Code = "assistant.message.invalid_input"
	CodeAssistantCancelled      Code = "assistant.request.cancelled"

	CodeAuthTokenUnauthorized Code = "server.auth.unauthorized"
	CodeAuthAccountForbidden  Code = "server.auth.account.forbidden"
	CodeAuthRoleForbidden     Code = "server.auth.role.forbidden"

	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerConfigInvalid   Code = "server.config.invalid_value"
	CodeServerStartFailure    Code = "server.start.failure"

	CodeAlertPublishFailure Code = "alert.publish.failure"

	CodeSecretInvalidInput   Code = "secrets.uri.invalid_input"
	CodeSecretNotFound       Code = "secrets.key.not_found"
	CodeSecretStoreFailure   Code = "secrets.store.failure"
	CodeSecretResolveFailure Code = "secrets.resolve.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldOwnerID(value string) Attr {
	return Field("owner_id", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value"
}

func IsUnauthorized(err error) bool {
	r := reason(CodeOf(err))
	return r == "unauthorized" || r == "forbidden"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

func IsCancelled(err error) bool {
	return reason(CodeOf(err)) == "cancelled"
}

// HTTPStatus maps an error to the response status its code class implies.
// Unrecognised errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsUnauthorized(err):
		if reason(CodeOf(err)) == "forbidden" {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	case IsCancelled(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

// reason returns the last dot-separated segment of a code, which names the
// failure class ("not_found", "invalid_input", ...).
func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
