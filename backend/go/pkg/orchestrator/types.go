package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
)

// Encoding is the wire format a Strategy uses for the request body.
type Encoding int

const (
	// FormURLEncoded sends application/x-www-form-urlencoded.
	FormURLEncoded Encoding = iota
	// JSON sends an application/json object.
	JSON
	// Multipart sends multipart/form-data; it is the only encoding that can carry files.
	Multipart
)

// String returns the string representation of the encoding.
func (e Encoding) String() string {
	switch e {
	case FormURLEncoded:
		return "form"
	case JSON:
		return "json"
	case Multipart:
		return "multipart"
	default:
		return "unknown"
	}
}

// Field is a logical string field of an intent.
type Field struct {
	Name  string
	Value string
}

// File is a logical file field of an intent.
type File struct {
	Field       string
	Name        string
	Content     []byte
	ContentType string // detected from Content when empty
}

// Intent is one logical user action, e.g. "ask a question about the uploaded document".
// It is encoded once per Strategy and never mutated by the orchestrator.
type Intent struct {
	Name   string
	Method string // defaults to POST
	URL    string
	Fields []Field
	Files  []File

	// ExpectSession makes a successful response always carry a session identifier,
	// generating one locally when the backend returned none.
	ExpectSession bool
}

// Strategy is one wire-format/field-naming scheme for sending an Intent.
type Strategy struct {
	Name     string
	Encoding Encoding
	// Aliases maps a logical field name to the wire names it is sent under.
	// Fields without an entry are sent under their own name.
	Aliases map[string][]string
	Header  http.Header
}

// Request is what the orchestrator hands to the Transport for a single attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the transport's view of an HTTP response, with the body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs one HTTP exchange. Implementations must respect ctx.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Result is the uniform outcome of Execute regardless of which strategy succeeded.
// When Success is true Payload is set and Err is nil; otherwise Err is set.
type Result struct {
	Success    bool
	StatusCode int
	Strategy   string
	Attempts   int

	// Payload is the raw body of the successful response.
	Payload json.RawMessage
	// Fields is the decoded body when it was a JSON object, nil otherwise.
	Fields map[string]any

	SessionID         string
	GeneratedFallback bool
	Warning           string

	Err *Error
}

// Decode unmarshals the successful payload into v.
func (r Result) Decode(v any) error {
	if !r.Success {
		return r.Err
	}
	return json.Unmarshal(r.Payload, v)
}
