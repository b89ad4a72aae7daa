package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/middleware"
)

// TokenSource returns the bearer token for the request's session, or "".
type TokenSource func(*http.Request) string

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// New creates a reverse proxy that rewrites paths and attaches the
// session's bearer token. Requests without a session token are answered
// with 401 and never reach the upstream.
// targetHost: "http://api:5000"
// stripPrefix: "/api"
// upstreamPrefix: ""
func New(targetHost, stripPrefix, upstreamPrefix string, token TokenSource) (http.Handler, error) {
	target, err := url.Parse(targetHost)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = &middleware.TracingTransport{Base: http.DefaultTransport}
	originalDirector := proxy.Director

	proxy.Director = func(req *http.Request) {
		originalDirector(req)

		req.Host = target.Host

		// /api/admin/users -> /admin/users
		if strings.HasPrefix(req.URL.Path, stripPrefix) {
			req.URL.Path = upstreamPrefix + strings.TrimPrefix(req.URL.Path, stripPrefix)
			req.URL.RawPath = ""
		}

		// the browser's cookies (session id, csrf) stay on this side
		req.Header.Del("Cookie")
		req.Header.Set("Authorization", "Bearer "+token(req))

		if reqID := middleware.GetRequestID(req.Context()); reqID != "" {
			req.Header.Set(middleware.HeaderXRequestID, reqID)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Ctx(r.Context()).Error().
			Err(err).
			Str("target", targetHost).
			Msg("upstream_proxy_error")

		writeError(w, r, http.StatusBadGateway, "upstream_unavailable", "upstream service unreachable")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token(r) == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthenticated", "sign in required")
			return
		}
		proxy.ServeHTTP(w, r)
	}), nil
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
	}})
}
