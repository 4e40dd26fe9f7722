// Package requests turns incoming HTTP requests into [webfiles.Request] values.
package requests

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/brettbedarf/webfiles"
	"github.com/google/uuid"
)

// Parameter and header names
const (
	FilenameParam   = "filename"
	ContentParam    = "content"
	RequestIDHeader = "X-Request-Id"
)

// Parse extracts the route from the URL path and filename/content from the
// query string or a form-encoded body. Any HTTP method is accepted.
//
// Errors wrap [webfiles.ErrRouteNotFound] for unknown paths, which is checked
// before any parameter, or [webfiles.ErrBadRequest] for missing parameters.
// Empty values count as missing. On ErrBadRequest the returned request still
// carries its Route. The ID is left for the caller to assign.
func Parse(r *http.Request) (*webfiles.Request, error) {
	route, ok := webfiles.Routes[r.URL.Path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", webfiles.ErrRouteNotFound, r.URL.Path)
	}

	req := &webfiles.Request{Route: route}
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if _, qerr := url.ParseQuery(r.URL.RawQuery); qerr == nil || errors.As(err, &tooLarge) {
			// The body was unreadable or over the size limit.
			return req, fmt.Errorf("%w: %v", webfiles.ErrBadRequest, err)
		}
		r.Form = lenientForm(r.URL.RawQuery, r.PostForm)
	}

	req.Filename = r.Form.Get(FilenameParam)
	if req.Filename == "" {
		return req, fmt.Errorf("%w: %s", webfiles.ErrBadRequest, FilenameParam)
	}
	if route.RequiresContent() {
		req.Content = r.Form.Get(ContentParam)
		if req.Content == "" {
			return req, fmt.Errorf("%w: %s", webfiles.ErrBadRequest, ContentParam)
		}
	}
	return req, nil
}

// lenientForm parses a query string that url.ParseQuery rejects, such as one
// with a bare ';' or a malformed escape. Pairs split on '&' only and values
// that do not unescape are kept verbatim. Body values come first, as in
// [http.Request.ParseForm].
func lenientForm(rawQuery string, post url.Values) url.Values {
	form := url.Values{}
	for k, vs := range post {
		form[k] = append(form[k], vs...)
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		form.Add(unescapeLenient(key), unescapeLenient(value))
	}
	return form
}

func unescapeLenient(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return strings.ReplaceAll(s, "+", " ")
}

// RequestID reuses a well-formed incoming X-Request-Id or generates a new one.
func RequestID(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// MissingParamMessage is the client-facing body for a bad request on route.
func MissingParamMessage(route webfiles.Route) string {
	if route.RequiresContent() {
		return "Missing filename or content"
	}
	return "Missing filename"
}
