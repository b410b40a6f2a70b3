package catalog

import (
	"net/http"
	"net/http/httputil"

	"github.com/julianstephens/plantmanager/internal/logger"
)

type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, false); err == nil {
		logger.Debug("HTTP request", "method", req.Method, "url", req.URL.String(), "request_dump", string(dump))
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		logger.Debug("HTTP request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, err
	}

	if dump, err := httputil.DumpResponse(resp, true); err == nil {
		logger.Debug("HTTP response", "method", req.Method, "url", req.URL.String(), "status_code", resp.StatusCode, "response_dump", string(dump))
	}
	return resp, nil
}
