package navigation

import (
	"errors"
	"fmt"
	"strings"

	"portfolio-site/pkg/validator"
)

// ErrInvalidRoute is returned when a registry entry is malformed.
var ErrInvalidRoute = errors.New("invalid route")

// Target is what activating a route does. The set of implementations is
// closed: Navigable changes the current path, ExternalAction opens a
// resource without leaving the page.
type Target interface {
	isTarget()
}

// Navigable moves the router to Path.
type Navigable struct {
	Path string `validate:"required,route_path"`
}

// ExternalAction opens the asset identified by Asset in a new browsing
// context. It never changes the current path.
type ExternalAction struct {
	Asset string `validate:"required,asset_id"`
}

func (Navigable) isTarget()      {}
func (ExternalAction) isTarget() {}

// Route is one entry of the navigation bar.
type Route struct {
	Label  string `validate:"required,no_html"`
	Target Target
}

// Link builds a navigable route.
func Link(label, path string) Route {
	return Route{Label: label, Target: Navigable{Path: path}}
}

// Action builds a route that triggers an external action.
func Action(label, asset string) Route {
	return Route{Label: label, Target: ExternalAction{Asset: asset}}
}

// Path returns the navigable path of the route, or "" for external actions.
func (r Route) Path() string {
	if nav, ok := r.Target.(Navigable); ok {
		return nav.Path
	}
	return ""
}

// IsExternalAction reports whether activating the route triggers a side
// effect instead of navigation.
func (r Route) IsExternalAction() bool {
	_, ok := r.Target.(ExternalAction)
	return ok
}

func (r Route) validate() error {
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidRoute)
	}
	if err := validator.Validate(r); err != nil {
		return fmt.Errorf("%w %q: %s", ErrInvalidRoute, r.Label, strings.Join(validator.FieldErrors(err), ", "))
	}

	switch target := r.Target.(type) {
	case Navigable:
		if err := validator.Validate(target); err != nil {
			return fmt.Errorf("%w %q: %s", ErrInvalidRoute, r.Label, strings.Join(validator.FieldErrors(err), ", "))
		}
	case ExternalAction:
		if err := validator.Validate(target); err != nil {
			return fmt.Errorf("%w %q: %s", ErrInvalidRoute, r.Label, strings.Join(validator.FieldErrors(err), ", "))
		}
	case nil:
		return fmt.Errorf("%w %q: a path or an external action is required", ErrInvalidRoute, r.Label)
	default:
		return fmt.Errorf("%w %q: unsupported target %T", ErrInvalidRoute, r.Label, target)
	}

	return nil
}

// Registry is the fixed, ordered list of navigable destinations. It is built
// once at startup and never mutated.
type Registry struct {
	routes []Route
}

// NewRegistry validates routes and freezes them in the given order. Labels
// and paths must be unique.
func NewRegistry(routes ...Route) (*Registry, error) {
	labels := make(map[string]struct{}, len(routes))
	paths := make(map[string]string, len(routes))

	frozen := make([]Route, 0, len(routes))
	for _, route := range routes {
		if err := route.validate(); err != nil {
			return nil, err
		}

		if _, dup := labels[route.Label]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidRoute, route.Label)
		}
		labels[route.Label] = struct{}{}

		if path := route.Path(); path != "" {
			if owner, dup := paths[path]; dup {
				return nil, fmt.Errorf("%w: path %q used by both %q and %q", ErrInvalidRoute, path, owner, route.Label)
			}
			paths[path] = route.Label
		}

		frozen = append(frozen, route)
	}

	return &Registry{routes: frozen}, nil
}

// MustRegistry is NewRegistry for package-level defaults.
func MustRegistry(routes ...Route) *Registry {
	registry, err := NewRegistry(routes...)
	if err != nil {
		panic(err)
	}
	return registry
}

// Routes returns the registry entries in display order. The returned slice is
// a copy.
func (r *Registry) Routes() []Route {
	if r == nil {
		return nil
	}
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Assets lists the asset ids referenced by external-action routes.
func (r *Registry) Assets() []string {
	if r == nil {
		return nil
	}
	var ids []string
	for _, route := range r.routes {
		if action, ok := route.Target.(ExternalAction); ok {
			ids = append(ids, action.Asset)
		}
	}
	return ids
}
