package webd

import (
	"crypto/subtle"
	ghandlers "github.com/gorilla/handlers"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// tokenAuthenticationMiddleware checks for Config.Token as a bearer token,
// or as the api_token query parameter.
// If no token is configured, it allows all requests.
func (s *WebDaemon) tokenAuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validToken := s.Config.Token
		if validToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			token = r.URL.Query().Get("api_token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(validToken)) != 1 {
			s.logger.Warn("Invalid token",
				"method", r.Method, "url", r.URL, "remote", r.RemoteAddr,
				"user-agent", r.UserAgent())
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// remoteHost includes any X-Forwarded-For hops.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	for _, v := range r.Header.Values("X-Forwarded-For") {
		host += "->" + v
	}
	return host
}

// logRequest is a gorilla log formatter that writes to the daemon's logger instead of the writer.
func (s *WebDaemon) logRequest(_ io.Writer, params ghandlers.LogFormatterParams) {
	req := params.Request
	uri := req.RequestURI
	if uri == "" {
		uri = params.URL.RequestURI()
	}
	s.logger.Debug("Request",
		"remote", remoteHost(req),
		"method", req.Method,
		"uri", uri,
		"proto", req.Proto,
		"status", params.StatusCode,
		"size", params.Size,
		"elapsed", time.Since(params.TimeStamp).Round(time.Microsecond),
	)
}

func (s *WebDaemon) loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(io.Discard, next, s.logRequest)
}
