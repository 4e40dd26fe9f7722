// Package webfiles contains core domain types and interfaces for the
// sandboxed file-management HTTP service.
package webfiles

// Route identifies which file operation an HTTP request maps to.
type Route string

const (
	CreateRoute Route = "create"
	ReadRoute   Route = "read"
	UpdateRoute Route = "update"
	DeleteRoute Route = "delete"
)

// Routes lists every recognized route keyed by its URL path.
var Routes = map[string]Route{
	"/create": CreateRoute,
	"/read":   ReadRoute,
	"/update": UpdateRoute,
	"/delete": DeleteRoute,
}

// RequiresContent reports whether the route needs a content parameter.
func (r Route) RequiresContent() bool {
	return r == CreateRoute || r == UpdateRoute
}

// Mutates reports whether the route changes the filesystem.
func (r Route) Mutates() bool {
	return r != ReadRoute
}

// Request is the normalized form of one HTTP exchange. It is never persisted.
type Request struct {
	ID       string // Correlation id, echoed back as X-Request-Id
	Route    Route
	Filename string // Raw caller-supplied filename; untrusted
	Content  string // Only meaningful when Route.RequiresContent()
}
