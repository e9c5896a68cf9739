package predict

import (
	"net/http"
)

// headerTransport stamps every outgoing request with client identification
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(req)
}

// newHTTPClient creates an HTTP client with our headers. Per-request deadlines
// come from the caller's context, so the client itself has no timeout.
func newHTTPClient(version string) *http.Client {
	return &http.Client{
		Transport: &headerTransport{
			base:      http.DefaultTransport,
			userAgent: "scamcheck/" + version,
		},
	}
}
