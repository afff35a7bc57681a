package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const redacted = "***"

// initLogging installs the process-wide slog default: JSON to stdout, an
// optional OTLP bridge, sensitive-field redaction, and correlation id
// propagation from the context.
func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string) {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: renameStandardAttrs,
	})

	var sink slog.Handler = stdout
	if lp != nil {
		sink = fanoutHandler{stdout, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}

	sink = &redactHandler{next: sink, keys: normalizeKeys(maskFields)}

	slog.SetDefault(slog.New(&serviceHandler{Handler: sink, service: serviceName}))
}

func renameStandardAttrs(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		// keep only the module-relative part of the path
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
	}
	return a
}

// serviceHandler stamps every record with the service name and the
// correlation id carried by the context.
type serviceHandler struct {
	slog.Handler
	service string
}

func (h *serviceHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.service))
	return h.Handler.Handle(ctx, r)
}

// fanoutHandler delivers each record to every child handler.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanoutHandler, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	next := make(fanoutHandler, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}

// redactHandler replaces the values of configured keys with "***", looking
// inside groups and JSON-encoded payload attributes.
type redactHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.keys) == 0 {
		return h.next.Handle(ctx, r)
	}

	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(h.redactAttr(attr))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &redactHandler{next: h.next.WithAttrs(attrs), keys: h.keys}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func (h *redactHandler) sensitive(key string) bool {
	_, found := h.keys[strings.ToLower(key)]
	return found
}

func (h *redactHandler) redactAttr(attr slog.Attr) slog.Attr {
	if h.sensitive(attr.Key) {
		return slog.String(attr.Key, redacted)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		members := attr.Value.Group()
		clean := make([]slog.Attr, 0, len(members))
		for _, m := range members {
			clean = append(clean, h.redactAttr(m))
		}
		attr.Value = slog.GroupValue(clean...)

	case slog.KindString:
		if out, ok := h.redactJSON([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(out)
		}

	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any:
			attr.Value = slog.AnyValue(h.redactValue(v))
		case map[string]string:
			generic := make(map[string]any, len(v))
			for k, s := range v {
				generic[k] = s
			}
			attr.Value = slog.AnyValue(h.redactValue(generic))
		case []any:
			attr.Value = slog.AnyValue(h.redactValue(v))
		case []byte:
			if out, ok := h.redactJSON(v); ok {
				attr.Value = slog.StringValue(out)
			}
		}
	}

	return attr
}

func (h *redactHandler) redactJSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", false
	}

	out, err := json.Marshal(h.redactValue(decoded))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (h *redactHandler) redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		clean := make(map[string]any, len(val))
		for k, member := range val {
			if h.sensitive(k) {
				clean[k] = redacted
			} else {
				clean[k] = h.redactValue(member)
			}
		}
		return clean
	case []any:
		clean := make([]any, len(val))
		for i, member := range val {
			clean[i] = h.redactValue(member)
		}
		return clean
	default:
		return v
	}
}

func normalizeKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return keys
}
