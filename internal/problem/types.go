package problem

import "fmt"

// Kind classifies an error into one of the HTTP-facing categories from
// spec.md §7.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindAuth               Kind = "AuthError"
	KindNotFound           Kind = "NotFound"
	KindConflict           Kind = "Conflict"
	KindPreconditionFailed Kind = "PreconditionFailed"
	KindUnsupportedMedia   Kind = "UnsupportedMediaType"
	KindUpstream           Kind = "UpstreamError"
	KindTimeout            Kind = "Timeout"
	KindInternal           Kind = "Internal"
)

// Status returns the HTTP status code associated with a Kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return 400
	case KindAuth:
		return 401
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindPreconditionFailed:
		return 412
	case KindUnsupportedMedia:
		return 415
	case KindUpstream:
		return 502
	case KindTimeout:
		return 504
	default:
		return 500
	}
}

// InvalidParam names one bad field in a ValidationError body.
type InvalidParam struct {
	Param  string `json:"param"`
	Reason string `json:"reason,omitempty"`
}

// Details is the RFC 7807 body. ServiceName and APIVersion feed Type;
// Components feeds Instance, both per spec.md §6.
type Details struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Status        int            `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	Instance      string         `json:"instance,omitempty"`
	InvalidParams []InvalidParam `json:"invalidParams,omitempty"`
}

// Error is the Go error carrying a problem Details body through the call
// stack, from FSM validation up to the HTTP layer.
type Error struct {
	Kind    Kind
	Title   string
	Detail  string
	Params  []InvalidParam
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New constructs a problem Error of the given kind.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf is New with fmt.Sprintf-style formatting of detail.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap attaches an upstream error to a problem Error for logging, without
// exposing it in the HTTP body.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Wrapped: err}
}

// WithParam appends an invalid parameter to a ValidationError.
func (e *Error) WithParam(param, reason string) *Error {
	e.Params = append(e.Params, InvalidParam{Param: param, Reason: reason})
	return e
}

// ToDetails renders e into the RFC 7807 body for the given service name,
// API version and matched resource components.
func (e *Error) ToDetails(serviceName, apiVersion string, components []string) Details {
	title := e.Title
	if title == "" {
		title = string(e.Kind)
	}
	return Details{
		Type:          fmt.Sprintf("/%s/%s", serviceName, apiVersion),
		Title:         title,
		Status:        e.Kind.Status(),
		Detail:        e.Detail,
		Instance:      joinComponents(components),
		InvalidParams: e.Params,
	}
}

func joinComponents(components []string) string {
	out := ""
	for _, c := range components {
		out += "/" + c
	}
	return out
}
