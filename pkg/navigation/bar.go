package navigation

import (
	"errors"
	"fmt"
	"strings"

	"portfolio-site/pkg/validator"
)

// ErrInvalidStyleHints is returned when the bar is rendered without a
// required presentation field.
var ErrInvalidStyleHints = errors.New("invalid style hints")

// BorderNone is the explicit "no border" value. An empty Border is a missing
// field, not a request for no border.
const BorderNone = "none"

// ActionPathPrefix is where external-action routes point. The asset handler
// behind it resolves the asset and redirects.
const ActionPathPrefix = "/assets/"

const (
	navBaseClass   = "dt w-100 mw8 center"
	brandBaseClass = "dib f2 pa1 ba dn no-underline grow-large border-box"
	linkBaseClass  = "f5 f4-m f4-l fw4 hover-yellow no-underline black-70 dib pv2 ph3"
	activeClass    = "active"
)

// StyleHints vary the bar's presentation per layout. Both fields are
// required.
type StyleHints struct {
	Border string `validate:"required"`
	Color  string `validate:"required"`
}

// Validate reports a missing field as ErrInvalidStyleHints.
func (h StyleHints) Validate() error {
	if err := validator.Validate(h); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStyleHints, strings.Join(validator.FieldErrors(err), ", "))
	}
	return nil
}

func (h StyleHints) borderClass() string {
	if h.Border == BorderNone {
		return ""
	}
	return h.Border
}

// Brand is the home mark shown before the registry links. It is never
// marked active.
type Brand struct {
	Label string
	Path  string
}

// MenuLink is one rendered navigation entry.
type MenuLink struct {
	Label    string `json:"label"`
	Href     string `json:"href"`
	Active   bool   `json:"active"`
	External bool   `json:"external"`
	Class    string `json:"-"`
}

// Menu is the rendered navigation bar.
type Menu struct {
	CurrentPath string     `json:"current_path"`
	NavClass    string     `json:"-"`
	Brand       *BrandLink `json:"brand,omitempty"`
	Links       []MenuLink `json:"links"`
}

// BrandLink is the rendered brand mark.
type BrandLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Class string `json:"-"`
}

// Active returns the active link, if any.
func (m Menu) Active() (MenuLink, bool) {
	for _, link := range m.Links {
		if link.Active {
			return link, true
		}
	}
	return MenuLink{}, false
}

// Bar renders registry routes into a Menu.
type Bar struct {
	Brand Brand
}

// ActionHref is the href of an external-action route for asset.
func ActionHref(asset string) string {
	return ActionPathPrefix + asset
}

// Render builds one link per registry route in order. A navigable link is
// active only when its path equals currentPath exactly; registry paths are
// unique, so at most one link is. External actions are never active.
// currentPath is read, never changed.
func (b Bar) Render(currentPath string, registry *Registry, hints StyleHints) (Menu, error) {
	if err := hints.Validate(); err != nil {
		return Menu{}, err
	}

	routes := registry.Routes()

	menu := Menu{
		CurrentPath: currentPath,
		NavClass:    joinClasses(hints.borderClass(), navBaseClass),
		Links:       make([]MenuLink, 0, len(routes)),
	}

	if label := strings.TrimSpace(b.Brand.Label); label != "" {
		href := b.Brand.Path
		if href == "" {
			href = "/"
		}
		menu.Brand = &BrandLink{
			Label: label,
			Href:  href,
			Class: joinClasses(hints.Color, brandBaseClass),
		}
	}

	for _, route := range routes {
		link := MenuLink{Label: route.Label}

		switch target := route.Target.(type) {
		case Navigable:
			link.Href = target.Path
			link.Active = target.Path == currentPath
		case ExternalAction:
			link.Href = ActionHref(target.Asset)
			link.External = true
		default:
			return Menu{}, fmt.Errorf("%w %q: unsupported target %T", ErrInvalidRoute, route.Label, target)
		}

		link.Class = linkBaseClass
		if link.Active {
			link.Class = joinClasses(linkBaseClass, activeClass)
		}

		menu.Links = append(menu.Links, link)
	}

	return menu, nil
}

func joinClasses(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}
