package client

// Result is the normalised outcome of a single request, whichever endpoint
// produced it.
//
// HTTP errors (4xx, 5xx) are reported like any other response, through
// StatusCode and Status. ErrorCode is non-zero only when the request failed
// below HTTP; Body is then empty.
type Result struct {
	ErrorCode    ErrorCode
	ErrorMessage string
	StatusCode   int
	Status       string
	Body         string
}

// Err returns a *TransportError when the request failed below HTTP, nil
// otherwise.
func (r Result) Err() error {
	if r.ErrorCode == CodeOK {
		return nil
	}

	return &TransportError{Code: r.ErrorCode, Message: r.ErrorMessage}
}

// IsSuccess reports a completed exchange with a 2xx status.
func (r Result) IsSuccess() bool {
	return r.ErrorCode == CodeOK && r.StatusCode >= 200 && r.StatusCode < 300
}

func transportFailure(statusCode int, err error) Result {
	return Result{
		ErrorCode:    classifyError(err),
		ErrorMessage: err.Error(),
		StatusCode:   statusCode,
		Status:       StatusText(statusCode),
	}
}

// Reply is what endpoint methods return: the raw Result and the body decoded
// as JSON. Data is an empty map when the body is not valid JSON.
type Reply struct {
	Result

	Data any
}

func newReply(res Result) *Reply {
	return &Reply{Result: res, Data: decodeBody(res.Body)}
}

// Object returns Data as a JSON object, or nil when it is something else.
func (r *Reply) Object() map[string]any {
	if r == nil {
		return nil
	}

	m, _ := r.Data.(map[string]any)

	return m
}

// Decode unmarshals the raw body into v.
func (r *Reply) Decode(v any) error {
	return jsonAPI.UnmarshalFromString(r.Body, v)
}

// Download is the reply of a file download.
type Download struct {
	Reply

	// Path is where the body was written.
	Path string
	// Size is the number of bytes written to Path.
	Size int64
	// MIME is the media type sniffed from the written bytes.
	MIME string
}
