package gservice

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorKind classifies a failed Gmail API call.
type ErrorKind int

const (
	// KindTransport covers failures without an HTTP status: DNS, TLS, cancelled contexts.
	KindTransport ErrorKind = iota
	// KindQueryUnsupported means the token's scope cannot use the q parameter.
	KindQueryUnsupported
	// KindClient is any other 4xx response.
	KindClient
	// KindServer is a 5xx response.
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindQueryUnsupported:
		return "query-unsupported"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "transport"
	}
}

const queryUnsupportedMarker = "Metadata scope does not support 'q' parameter"

// APIError is returned by every GMail method.
type APIError struct {
	Kind ErrorKind
	Op   string
	Code int
	// Body is the raw response body, empty for transport errors.
	Body string
	Err  error
}

// Reason is the HTTP status text for Code.
func (e *APIError) Reason() string {
	return http.StatusText(e.Code)
}

func (e *APIError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %d %s: %v", e.Op, e.Code, e.Reason(), e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindTransport when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransport
}

// IsQueryUnsupported reports whether err means server-side filtering is not allowed.
func IsQueryUnsupported(err error) bool {
	return err != nil && KindOf(err) == KindQueryUnsupported
}

func classify(op string, err error) error {
	apiErr := &APIError{Kind: KindTransport, Op: op, Err: err}

	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return apiErr
	}

	apiErr.Code = gErr.Code
	apiErr.Body = gErr.Body

	switch {
	case strings.Contains(gErr.Message, queryUnsupportedMarker) || strings.Contains(gErr.Body, queryUnsupportedMarker):
		apiErr.Kind = KindQueryUnsupported
	case gErr.Code >= 500:
		apiErr.Kind = KindServer
	case gErr.Code >= 400:
		apiErr.Kind = KindClient
	}

	return apiErr
}
