package httpclient

import "encoding/json"

// Request describes one call. Path is resolved against the client's BaseURL
// and may be absolute. Body is JSON-encoded unless it is a []byte or string.
// Headers override the client defaults for this call only.
type Request struct {
	Method    string
	Path      string
	Headers   map[string]string
	Query     map[string]string
	Body      any
	RequestID string // generated when empty
}

// Response is a fully read response. RequestID echoes what was sent.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	RequestID  string
}

func (r *Response) IsSuccess() bool { return r.StatusCode/100 == 2 }

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error { return json.Unmarshal(r.Body, v) }
