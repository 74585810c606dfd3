package core

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const (
	ModuleErrorBadInput        = "MODULE_BAD_INPUT"
	ModuleErrorUnauthorized    = "MODULE_UNAUTHORIZED"
	ModuleErrorForbidden       = "MODULE_FORBIDDEN"
	ModuleErrorNotFound        = "MODULE_NOT_FOUND"
	ModuleErrorConflict        = "MODULE_CONFLICT"
	ModuleErrorRateLimited     = "MODULE_RATE_LIMITED"
	ModuleErrorExternalFailure = "MODULE_EXTERNAL_FAILURE"
	ModuleErrorAuthFailed      = "MODULE_AUTH_FAILED"
	ModuleErrorInternal        = "MODULE_INTERNAL_ERROR"
)

var (
	ErrInvalidAuthStateTransition = errors.New("core: invalid auth state transition")
	ErrCredentialNotFound         = errors.New("core: credential not found")
	ErrEntityNotFound             = errors.New("core: entity not found")
)

// BadInput reports a missing or invalid parameter detected before any
// network call was attempted.
func BadInput(message string, metadata map[string]any) *goerrors.Error {
	return newModuleError(message, goerrors.CategoryBadInput, http.StatusBadRequest, metadata)
}

// ValidationFailed converts ozzo-validation errors into a field level
// validation envelope. Non validation errors are wrapped as bad input.
func ValidationFailed(message string, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, message).
			WithCode(http.StatusBadRequest).
			WithTextCode(ModuleErrorBadInput)
	}
	fields := make([]goerrors.FieldError, 0, len(fieldErrs))
	for _, key := range sortedErrorKeys(fieldErrs) {
		fields = append(fields, goerrors.FieldError{
			Field:   key,
			Message: fieldErrs[key].Error(),
		})
	}
	return goerrors.NewValidation(message, fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(ModuleErrorBadInput)
}

// AuthFailed is returned when a token exchange or refresh cannot complete.
func AuthFailed(source error, message string, metadata map[string]any) *goerrors.Error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryAuth)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryAuth, message)
	}
	err = err.WithCode(http.StatusUnauthorized).WithTextCode(ModuleErrorAuthFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// Conflict reports a persistence invariant violation such as duplicate
// credentials for one identifier.
func Conflict(message string, metadata map[string]any) *goerrors.Error {
	return newModuleError(message, goerrors.CategoryConflict, http.StatusConflict, metadata)
}

// RequestFailed builds the error for a vendor call that returned a non-2xx
// status. The category follows the status so callers can branch on 404 or
// 401 without parsing messages.
func RequestFailed(method string, url string, statusCode int, body []byte) *goerrors.Error {
	category := CategoryForStatus(statusCode)
	message := fmt.Sprintf("%s request failed", strings.ToUpper(strings.TrimSpace(method)))
	err := goerrors.New(message, category).
		WithCode(statusCode).
		WithTextCode(textCodeForCategory(category))
	err.WithMetadata(map[string]any{
		"method":      strings.ToUpper(method),
		"url":         url,
		"status_code": statusCode,
		"body":        truncateBody(body),
	})
	return err
}

// RequestTransportFailed wraps a network level failure for a vendor call.
func RequestTransportFailed(source error, method string, url string) *goerrors.Error {
	message := fmt.Sprintf("%s request failed", strings.ToUpper(strings.TrimSpace(method)))
	err := goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(ModuleErrorExternalFailure)
	err.WithMetadata(map[string]any{
		"method": strings.ToUpper(method),
		"url":    url,
	})
	return err
}

func CategoryForStatus(statusCode int) goerrors.Category {
	switch {
	case statusCode == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case statusCode == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case statusCode == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case statusCode == http.StatusConflict:
		return goerrors.CategoryConflict
	case statusCode == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case statusCode >= 400 && statusCode < 500:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}

// StatusCode returns the HTTP status carried by a module error, or zero.
func StatusCode(err error) int {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Code
	}
	return 0
}

// HasCategory reports whether err is a module error of the given category.
func HasCategory(err error, category goerrors.Category) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == category
	}
	return false
}

// MapError normalizes any error into the module error envelope.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureModuleErrorEnvelope(richErr)
	}
	switch {
	case errors.Is(err, ErrCredentialNotFound), errors.Is(err, ErrEntityNotFound):
		return newModuleError(err.Error(), goerrors.CategoryNotFound, http.StatusNotFound, nil)
	case errors.Is(err, ErrInvalidAuthStateTransition):
		return newModuleError(err.Error(), goerrors.CategoryConflict, http.StatusConflict, nil)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureModuleErrorEnvelope(mapped)
}

func newModuleError(message string, category goerrors.Category, code int, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCodeForCategory(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func ensureModuleErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = statusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = textCodeForCategory(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func textCodeForCategory(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ModuleErrorBadInput
	case goerrors.CategoryAuth:
		return ModuleErrorUnauthorized
	case goerrors.CategoryAuthz:
		return ModuleErrorForbidden
	case goerrors.CategoryNotFound:
		return ModuleErrorNotFound
	case goerrors.CategoryConflict:
		return ModuleErrorConflict
	case goerrors.CategoryRateLimit:
		return ModuleErrorRateLimited
	case goerrors.CategoryExternal:
		return ModuleErrorExternalFailure
	default:
		return ModuleErrorInternal
	}
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

const maxErrorBodyBytes = 2048

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		return string(body[:maxErrorBodyBytes])
	}
	return string(body)
}

func sortedErrorKeys(errs validation.Errors) []string {
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
