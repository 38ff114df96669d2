package gql

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is returned for any non-2xx answer from the endpoint, whatever
// its body decodes to.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("endpoint returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

const statusBodyLimit = 512

// statusTransport rejects non-2xx responses before the graphql library
// decodes them.
type statusTransport struct {
	next http.RoundTripper
}

func (t statusTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	res, err := t.next.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res, nil
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, statusBodyLimit))
	return nil, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(b))}
}

// withStatusCheck returns a copy of hc whose transport applies statusTransport.
func withStatusCheck(hc *http.Client) *http.Client {
	c := *hc
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c.Transport = statusTransport{next: next}
	return &c
}
