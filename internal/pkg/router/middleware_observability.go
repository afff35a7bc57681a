package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/YessineAmor/stampd/internal/pkg/config"
	"github.com/YessineAmor/stampd/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// bodies are logged up to this many bytes, the rest is dropped
const maxLoggedBodyBytes = 32 * 1024

// middlewareObservability traces each request, records request count and
// latency metrics, and logs the request and response with sensitive fields
// masked.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	masked := maskedFields(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
			))
			defer span.End()

			logInbound(ctx, r, route, masked)

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusOrOK()
			elapsed := time.Since(start)

			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}
			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.bytes),
			)

			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status >= http.StatusInternalServerError && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if latency != nil {
				latency.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"body", rec.loggableBody(masked),
			)
		})
	}
}

// responseRecorder captures status, size, a bounded copy of the body, and
// the handler error for the log and span above.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   *bytes.Buffer
	capped bool
	err    error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if !w.capped && len(p) > 0 {
		remaining := maxLoggedBodyBytes - w.body.Len()
		switch {
		case remaining <= 0:
			w.capped = true
		case len(p) > remaining:
			w.body.Write(p[:remaining])
			w.capped = true
		default:
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// SetError is called by the router when a handler fails.
func (w *responseRecorder) SetError(err error) { w.err = err }

func (w *responseRecorder) statusOrOK() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseRecorder) loggableBody(masked map[string]struct{}) any {
	body := maskBody(w.body.Bytes(), masked)
	if w.capped {
		return map[string]any{"body": body, "truncated": true}
	}
	return body
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

func (w *responseRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := w.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func logInbound(ctx context.Context, r *http.Request, route string, masked map[string]struct{}) {
	slog.InfoContext(ctx, "request received",
		"method", r.Method,
		"path", route,
		"uri", r.RequestURI,
		"headers", maskHeaders(r.Header, masked),
		"body", maskBody(peekBody(r), masked),
	)
}

// peekBody reads up to the logging cap and splices what it read back onto
// the request so the handler still sees the full body.
func peekBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	peeked, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(peeked), r.Body))

	if len(peeked) > maxLoggedBodyBytes {
		return peeked[:maxLoggedBodyBytes]
	}
	return peeked
}

func maskedFields(cfg config.Config) map[string]struct{} {
	fields := make(map[string]struct{})
	if cfg == nil {
		return fields
	}
	for _, f := range cfg.GetArray("instrument.log_mask_fields") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			fields[f] = struct{}{}
		}
	}
	return fields
}

func maskHeaders(headers http.Header, masked map[string]struct{}) http.Header {
	if len(masked) == 0 {
		return headers
	}
	out := headers.Clone()
	for key := range out {
		if _, found := masked[strings.ToLower(key)]; found {
			out.Set(key, "***")
		}
	}
	return out
}

func maskBody(body []byte, masked map[string]struct{}) any {
	if len(body) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return maskValue(decoded, masked)
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	return string(body)
}

func maskValue(v any, masked map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, member := range val {
			if _, found := masked[strings.ToLower(k)]; found {
				out[k] = "***"
			} else {
				out[k] = maskValue(member, masked)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, member := range val {
			out[i] = maskValue(member, masked)
		}
		return out
	default:
		return v
	}
}
