package apiclient

import (
	"net/http"
	"net/url"
)

// Request describes one call to the backend. It is treated as a value: the pipeline clones it
// before changing headers or retry state, so callers may reuse a Request freely.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any

	// SuppressGlobalMessage stops the pipeline from publishing a status error notification so
	// the caller can render its own. Network failures are still reported.
	SuppressGlobalMessage bool

	retried bool
	bearer  string
}

func Get(path string) Request {
	return Request{Method: http.MethodGet, Path: path}
}

func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body}
}

func Delete(path string) Request {
	return Request{Method: http.MethodDelete, Path: path}
}

// WithQuery returns a copy of r carrying query.
func (r Request) WithQuery(query url.Values) Request {
	c := r.clone()
	c.Query = cloneValues(query)
	return c
}

// Quiet returns a copy of r with global status error notifications suppressed.
func (r Request) Quiet() Request {
	c := r.clone()
	c.SuppressGlobalMessage = true
	return c
}

// Retried reports whether r is already the single permitted retry of an earlier request.
func (r Request) Retried() bool {
	return r.retried
}

func (r Request) withBearer(token string) Request {
	c := r.clone()
	c.bearer = token
	return c
}

func (r Request) asRetry(token string) Request {
	c := r.withBearer(token)
	c.retried = true
	return c
}

func (r Request) clone() Request {
	c := r
	c.Header = r.Header.Clone()
	c.Query = cloneValues(r.Query)
	return c
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	c := make(url.Values, len(v))
	for k, vals := range v {
		c[k] = append([]string(nil), vals...)
	}
	return c
}
