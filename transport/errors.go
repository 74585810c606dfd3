package transport

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/lunchpaillola/api-module-library/core"
)

func transportError(message string, category goerrors.Category, code int, metadata map[string]any) error {
	return annotate(goerrors.New(message, category), category, code, metadata)
}

// transportWrapError falls back to transportError when source is nil.
func transportWrapError(source error, category goerrors.Category, message string, code int, metadata map[string]any) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	return annotate(goerrors.Wrap(source, category, message), category, code, metadata)
}

func annotate(err *goerrors.Error, category goerrors.Category, code int, metadata map[string]any) *goerrors.Error {
	err = err.WithCode(code)
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		err = err.WithTextCode(core.ModuleErrorBadInput)
	case goerrors.CategoryExternal:
		err = err.WithTextCode(core.ModuleErrorExternalFailure)
	default:
		err = err.WithTextCode(core.ModuleErrorInternal)
	}
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
