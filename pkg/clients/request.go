package clients

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/ajitpratap0/tap-typo/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
)

// Request describes one logical HTTP request. Body, when set, is sent as JSON.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Params url.Values
	Body   interface{}
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// fullURL merges Params into the URL's query string.
func (r *Request) fullURL() (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL %q is not absolute", r.URL)
	}
	if len(r.Params) > 0 {
		q := u.Query()
		for key, values := range r.Params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is one the remote uses for success.
func (r *Response) OK() bool {
	switch r.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return true
	default:
		return false
	}
}

// Decode unmarshals the JSON body into v. Numbers in untyped values decode
// as json.Number.
func (r *Response) Decode(v interface{}) error {
	if err := jsonpool.UnmarshalNumber(r.Body, v); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to decode response body").
			WithDetail(errors.DetailStatusCode, r.StatusCode)
	}
	return nil
}

// Message returns the remote-provided "message" field, if the body has one.
func (r *Response) Message() string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := jsonpool.Unmarshal(r.Body, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}

// Err converts a non-success response into a typed error for operation.
// It returns nil when the response is OK.
func (r *Response) Err(operation string) error {
	if r.OK() {
		return nil
	}

	errType := errors.ErrorTypeRemote
	switch r.StatusCode {
	case http.StatusUnauthorized:
		errType = errors.ErrorTypeAuthentication
	case http.StatusForbidden:
		errType = errors.ErrorTypePermission
	case http.StatusNotFound:
		errType = errors.ErrorTypeNotFound
	case http.StatusTooManyRequests:
		errType = errors.ErrorTypeRateLimit
	}

	message := fmt.Sprintf("%s: remote responded with status %d", operation, r.StatusCode)
	remote := r.Message()
	if remote != "" {
		message = fmt.Sprintf("%s: %s", message, remote)
	}

	return errors.New(errType, message).
		WithDetail(errors.DetailStatusCode, r.StatusCode).
		WithDetail(errors.DetailMessage, remote)
}
