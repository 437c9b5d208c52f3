package guard

import (
	"sort"
	"strings"

	"github.com/coldread-dev/coldread/internal/cli/session"
)

// Route binds a path prefix to an access class.
type Route struct {
	Path   string `json:"path" yaml:"path"`
	Access Access `json:"access" yaml:"access"`
}

// DefaultRoutes is the web app's page set.
var DefaultRoutes = []Route{
	{Path: "/", Access: Public},
	{Path: "/login", Access: Public},
	{Path: "/signup", Access: Public},
	{Path: "/forgot-password", Access: Public},
	{Path: "/reset-password", Access: Public},
	{Path: "/verify-email", Access: Public},
	{Path: "/pricing", Access: Public},
	{Path: "/onboarding", Access: RequiresSession},
	{Path: "/settings", Access: RequiresSession},
	{Path: "/billing", Access: RequiresSession},
	{Path: "/dashboard", Access: RequiresSessionAndOnboarding},
	{Path: "/analyze", Access: RequiresSessionAndOnboarding},
	{Path: "/reports", Access: RequiresSessionAndOnboarding},
	{Path: "/history", Access: RequiresSessionAndOnboarding},
}

// Table resolves paths to access classes by longest matching prefix.
type Table struct {
	routes []Route
}

// NewTable builds a table from routes. Later entries override earlier ones
// with the same path, so overrides can be appended to DefaultRoutes.
func NewTable(routes []Route) *Table {
	byPath := make(map[string]Route, len(routes))
	for _, r := range routes {
		r.Path = normalize(r.Path)
		byPath[r.Path] = r
	}

	t := &Table{routes: make([]Route, 0, len(byPath))}
	for _, r := range byPath {
		t.routes = append(t.routes, r)
	}
	sort.Slice(t.routes, func(i, j int) bool {
		return len(t.routes[i].Path) > len(t.routes[j].Path)
	})
	return t
}

// Routes returns the table's routes, longest path first.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Access returns the access class for path. "/" only matches the root
// itself; unknown paths fail closed to RequiresSessionAndOnboarding.
func (t *Table) Access(path string) Access {
	path = normalize(path)
	for _, r := range t.routes {
		if r.Path == "/" {
			if path == "/" {
				return r.Access
			}
			continue
		}
		if path == r.Path || strings.HasPrefix(path, r.Path+"/") {
			return r.Access
		}
	}
	return RequiresSessionAndOnboarding
}

// Check resolves path and decides for state.
func (t *Table) Check(state session.State, path string) Decision {
	return Decide(state, t.Access(path))
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	return path
}
