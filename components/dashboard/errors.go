package dashboard

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// CategoryMissingField classifies AI replies that lack a key the
// visualization flow needs.
const CategoryMissingField goerrors.Category = "missing_field"

const (
	TextCodeMissingField = "MISSING_FIELD"
	TextCodeMissingInput = "MISSING_INPUT"
	TextCodeRemote       = "REMOTE_ERROR"
	TextCodeUnexpected   = "UNEXPECTED_STATUS"
)

var errMissingClient = errors.New("dashboard: analytics client not configured")

// Input errors surface to callers as bad requests.
var (
	errMissingSession  = goerrors.New("dashboard: session id is required", goerrors.CategoryBadInput).WithTextCode(TextCodeMissingInput)
	errMissingQuestion = goerrors.New("dashboard: question is required", goerrors.CategoryBadInput).WithTextCode(TextCodeMissingInput)
	errMissingSource   = goerrors.New("dashboard: data source id is required", goerrors.CategoryBadInput).WithTextCode(TextCodeMissingInput)
)

// NewMissingFieldError reports a key absent from an AI reply.
func NewMissingFieldError(field string) *goerrors.Error {
	return goerrors.New("missing field "+field, CategoryMissingField).
		WithTextCode(TextCodeMissingField).
		WithMetadata(map[string]any{"field": field})
}

// IsMissingField reports whether err came from AI reply extraction.
func IsMissingField(err error) bool {
	return goerrors.IsCategory(err, CategoryMissingField)
}

// MissingField returns the field name carried by a missing-field error.
func MissingField(err error) string {
	var gerr *goerrors.Error
	if !goerrors.As(err, &gerr) || gerr.Category != CategoryMissingField {
		return ""
	}
	field, _ := gerr.Metadata["field"].(string)
	return field
}

// NewRemoteError maps an unexpected HTTP response to an error category.
func NewRemoteError(operation string, status int, body string) *goerrors.Error {
	category := goerrors.CategoryExternal
	switch status {
	case http.StatusUnauthorized:
		category = goerrors.CategoryAuth
	case http.StatusForbidden:
		category = goerrors.CategoryAuthz
	case http.StatusNotFound:
		category = goerrors.CategoryNotFound
	case http.StatusConflict:
		category = goerrors.CategoryConflict
	case http.StatusTooManyRequests:
		category = goerrors.CategoryRateLimit
	}
	return goerrors.New(operation+" failed with status "+http.StatusText(status), category).
		WithCode(status).
		WithTextCode(TextCodeRemote).
		WithMetadata(map[string]any{
			"operation": operation,
			"body":      body,
		})
}

// RemoteBody returns the raw response body attached to a remote error.
func RemoteBody(err error) string {
	var gerr *goerrors.Error
	if !goerrors.As(err, &gerr) {
		return ""
	}
	body, _ := gerr.Metadata["body"].(string)
	return body
}

// ErrorMessage renders err for inline display. Remote errors include the
// raw body so users see the platform's explanation.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var gerr *goerrors.Error
	if goerrors.As(err, &gerr) {
		msg := gerr.Message
		if body, _ := gerr.Metadata["body"].(string); body != "" {
			msg += ": " + body
		}
		return msg
	}
	return err.Error()
}
