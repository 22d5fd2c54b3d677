package httpapi

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// StatusFor maps an action error to the status returned to the caller.
// Failures reported by the analytics platform surface as 502.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, dashboard.ErrNoAIResponse) {
		return http.StatusConflict
	}
	var gerr *goerrors.Error
	if !goerrors.As(err, &gerr) {
		return http.StatusInternalServerError
	}
	switch {
	case gerr.TextCode == dashboard.TextCodeRemote || gerr.TextCode == dashboard.TextCodeUnexpected:
		return http.StatusBadGateway
	case gerr.Category == dashboard.CategoryMissingField:
		return http.StatusUnprocessableEntity
	case gerr.Category == goerrors.CategoryValidation, gerr.Category == goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case gerr.Category == goerrors.CategoryExternal:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorBody renders err as a go-errors response document.
func ErrorBody(err error) goerrors.ErrorResponse {
	return goerrors.MapToError(err, goerrors.DefaultErrorMappers()).ToErrorResponse(false, nil)
}
