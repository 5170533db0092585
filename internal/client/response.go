package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/contractkit/internal/contract"
)

// Response is the result of a call: exactly one of Success or Failure.
// The zero value is neither and reports status 0.
type Response[R any] struct {
	success *Success[R]
	failure *Failure
}

// Success is a 2xx response with the decoded body.
type Success[R any] struct {
	Status int
	Body   R
	Header http.Header
}

// Failure is a non-2xx response, or status 0 when no response was
// received at all; Err then carries the transport error.
type Failure struct {
	Status int
	Body   ErrorBody
	Raw    []byte
	Header http.Header
	Err    error
}

// Succeeded wraps s as a response.
func Succeeded[R any](s Success[R]) Response[R] { return Response[R]{success: &s} }

// Failed wraps f as a response.
func Failed[R any](f Failure) Response[R] { return Response[R]{failure: &f} }

// OK reports whether the response is the success case.
func (r Response[R]) OK() bool { return r.success != nil }

// Success returns the success case.
func (r Response[R]) Success() (Success[R], bool) {
	if r.success == nil {
		return Success[R]{}, false
	}
	return *r.success, true
}

// Failure returns the failure case.
func (r Response[R]) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

// Status returns the HTTP status of either case.
func (r Response[R]) Status() int {
	switch {
	case r.success != nil:
		return r.success.Status
	case r.failure != nil:
		return r.failure.Status
	}
	return 0
}

// Header returns the response headers of either case.
func (r Response[R]) Header() http.Header {
	switch {
	case r.success != nil:
		return r.success.Header
	case r.failure != nil:
		return r.failure.Header
	}
	return nil
}

// ErrorBody is the wire shape of failure responses:
//
//	{ statusCode: number; message: string | string[]; error?: string; timestamp: string; path: string }
type ErrorBody struct {
	StatusCode int     `json:"statusCode"`
	Message    Message `json:"message"`
	Error      string  `json:"error,omitempty"`
	Timestamp  string  `json:"timestamp"`
	Path       string  `json:"path"`
}

// IsValidation reports whether the body is a validation error, i.e. its
// message is a list.
func (b ErrorBody) IsValidation() bool { return b.Message.IsList() }

// Message is a single string or, for validation errors, a list of strings.
type Message struct {
	text  string
	items []string
	list  bool
}

// TextMessage returns a plain message.
func TextMessage(s string) Message { return Message{text: s} }

// ListMessage returns a validation message list.
func ListMessage(items ...string) Message {
	return Message{items: append([]string{}, items...), list: true}
}

// IsList reports whether the message was a list on the wire.
func (m Message) IsList() bool { return m.list }

// Items returns the message lines; a plain message is a single line.
func (m Message) Items() []string {
	if m.list {
		return m.items
	}
	if m.text == "" {
		return nil
	}
	return []string{m.text}
}

func (m Message) String() string {
	if m.list {
		return strings.Join(m.items, "; ")
	}
	return m.text
}

func (m Message) MarshalJSON() ([]byte, error) {
	if m.list {
		items := m.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(m.text)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*m = Message{items: items, list: true}
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*m = Message{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = Message{text: s}
	return nil
}

// StatusError is returned alongside the response when WithExpectedStatus
// was given and the actual status differs.
type StatusError struct {
	Method contract.Method
	Path   string
	Want   int
	Got    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s %s: expected status %d, got %d", e.Method, e.Path, e.Want, e.Got)
}

// Decode builds the typed response for a received status and body. A 2xx
// body is decoded into R unless R is contract.Void or contract.None or the
// body is empty. Failure bodies that do not decode as an ErrorBody leave Body
// zero; Raw keeps the bytes.
func Decode[R any](status int, header http.Header, raw []byte) (Response[R], error) {
	if status >= 200 && status < 300 {
		s := Success[R]{Status: status, Header: header}
		if len(bytes.TrimSpace(raw)) > 0 && !discardsBody[R]() {
			if err := json.Unmarshal(raw, &s.Body); err != nil {
				return Succeeded(s), fmt.Errorf("client: decode %d response: %w", status, err)
			}
		}
		return Succeeded(s), nil
	}
	f := Failure{Status: status, Header: header, Raw: raw}
	// Proxies and crashed handlers answer with HTML or plain text. Such a
	// body is not an error of the call: Body stays zero and Raw keeps it.
	var body ErrorBody
	if json.Unmarshal(raw, &body) == nil {
		f.Body = body
	}
	return Failed[R](f), nil
}

func discardsBody[R any]() bool {
	var zero R
	switch any(zero).(type) {
	case contract.Void, contract.None:
		return true
	}
	return false
}
