package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/validation"
)

// Remap turns a raw server message into a friendlier one when any pattern
// appears in it (case-insensitive).
type Remap struct {
	Patterns []string
	Message  string
}

func (r Remap) matches(message string) bool {
	lower := strings.ToLower(message)
	for _, p := range r.Patterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// DefaultRemaps lists the business-rule rejections the backend phrases for
// developers rather than shoppers.
func DefaultRemaps() []Remap {
	return []Remap{
		{
			Patterns: []string{"no transaction", "never purchased", "has not purchased"},
			Message:  "You can only rate sellers you have bought from.",
		},
		{
			Patterns: []string{"already rated"},
			Message:  "You have already rated this seller.",
		},
		{
			Patterns: []string{"insufficient stock", "out of stock"},
			Message:  "This product is no longer available in that quantity.",
		},
	}
}

type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Errors  []wireFieldErr  `json:"errors"`
}

type nestedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// wireFieldErr accepts both {field, message} and {path|param, msg} shapes.
type wireFieldErr struct {
	Field   string `json:"field"`
	Path    string `json:"path"`
	Param   string `json:"param"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (w wireFieldErr) toFieldError() pkgerrors.FieldError {
	field := firstNonEmpty(w.Field, w.Path, w.Param)
	return pkgerrors.FieldError{Field: field, Message: firstNonEmpty(w.Message, w.Msg)}
}

func (b errorBody) message() string {
	if strings.TrimSpace(b.Message) != "" {
		return b.Message
	}
	if len(b.Error) == 0 {
		return ""
	}
	var nested nestedError
	if err := json.Unmarshal(b.Error, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	var plain string
	if err := json.Unmarshal(b.Error, &plain); err == nil {
		return plain
	}
	return ""
}

func (c *Client) responseError(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	if len(body.Errors) > 0 {
		fields := make([]pkgerrors.FieldError, 0, len(body.Errors))
		for _, fe := range body.Errors {
			fields = append(fields, fe.toFieldError())
		}
		message := body.message()
		if message == "" {
			message = validation.Summary(fields)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(fields)
	}

	message := body.message()
	for _, r := range c.remaps {
		if message != "" && r.matches(message) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, r.Message)
		}
	}
	if message == "" {
		message = transportMessage(status)
	}
	if message == "" {
		message = pkgerrors.MessageGeneric
	}
	return pkgerrors.New(codeForStatus(status), message)
}

// transportMessage mirrors what a bare HTTP stack reports for a failed status.
func transportMessage(status int) string {
	if status <= 0 {
		return ""
	}
	return fmt.Sprintf("Request failed with status code %d", status)
}

func codeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case status == http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusConflict:
		return pkgerrors.CodeConflict
	case status >= 500:
		return pkgerrors.CodeDependency
	}
	return pkgerrors.CodeInternal
}

func isStruct(out any) bool {
	t := reflect.TypeOf(out)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
