package router

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
)

// Request wraps http.Request with the small set of helpers inbound
// handlers need.
type Request struct {
	*http.Request
}

// GetParam reads a path parameter captured by the route pattern.
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// GetQuery reads a query parameter, trimmed of surrounding whitespace.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt32 parses a query parameter as int32. A missing parameter is
// zero, not an error.
func (r *Request) GetQueryInt32(key string) (int32, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, goerror.NewInvalidFormat()
	}
	return int32(v), nil
}

// DecodeBody decodes the JSON body into dst, rejecting unknown fields and
// trailing content.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}
	return nil
}
