package site

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"portfolio-site/internal/config"
	"portfolio-site/internal/meta"
	"portfolio-site/pkg/lang"
	"portfolio-site/pkg/logger"
	"portfolio-site/pkg/navigation"
	"portfolio-site/pkg/validator"
)

// Profile is the site metadata source: defaults every page falls back to,
// the brand mark and the route registry. It is loaded once at startup and
// never changed afterwards.
type Profile struct {
	Name     string
	URL      string
	Language string
	Defaults meta.Defaults
	Brand    navigation.Brand
	Registry *navigation.Registry
	// Assets maps external-action asset ids to static paths or URLs.
	Assets map[string]string
}

// DefaultRoutes is the registry used when the site file defines none.
func DefaultRoutes() []navigation.Route {
	return []navigation.Route{
		navigation.Link("About", "/about"),
		navigation.Link("Projects", "/projects"),
		navigation.Link("Blog", "/blog"),
		navigation.Action("Resume", "resume"),
		navigation.Link("Contact", "/contact"),
	}
}

type fileProfile struct {
	Name        string            `yaml:"name"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Keywords    []string          `yaml:"keywords"`
	URL         string            `yaml:"url"`
	Brand       string            `yaml:"brand"`
	Language    string            `yaml:"language"`
	Navigation  []fileRoute       `yaml:"navigation"`
	Assets      map[string]string `yaml:"assets"`
}

type fileRoute struct {
	Label  string `yaml:"label"`
	Path   string `yaml:"path"`
	Action string `yaml:"action"`
}

func (r fileRoute) route() (navigation.Route, error) {
	path := strings.TrimSpace(r.Path)
	action := strings.TrimSpace(r.Action)

	switch {
	case path != "" && action != "":
		return navigation.Route{}, fmt.Errorf("%w %q: set either path or action, not both", navigation.ErrInvalidRoute, r.Label)
	case path != "":
		return navigation.Link(r.Label, path), nil
	case action != "":
		return navigation.Action(r.Label, action), nil
	}
	return navigation.Route{}, fmt.Errorf("%w %q: path or action is required", navigation.ErrInvalidRoute, r.Label)
}

// FromConfig builds a profile from environment configuration alone.
func FromConfig(cfg *config.Config) (*Profile, error) {
	registry, err := navigation.NewRegistry(DefaultRoutes()...)
	if err != nil {
		return nil, err
	}

	language, err := lang.OrDefault(cfg.SiteLanguage)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Name:     cfg.SiteName,
		URL:      cfg.SiteURL,
		Language: language,
		Defaults: meta.Defaults{
			Title:       cfg.SiteTitle,
			Description: cfg.SiteDescription,
			Keywords:    append([]string(nil), cfg.SiteKeywords...),
		},
		Brand:    navigation.Brand{Label: cfg.SiteBrand, Path: "/"},
		Registry: registry,
		Assets:   map[string]string{"resume": cfg.ResumePath},
	}, nil
}

// Load builds the profile from cfg and overlays the site file when one
// exists. A missing file is not an error.
func Load(cfg *config.Config) (*Profile, error) {
	profile, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	path := strings.TrimSpace(cfg.SiteFile)
	if path == "" {
		return profile, profile.checkURL()
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("No site file found, using environment site settings", map[string]interface{}{"path": path})
		return profile, profile.checkURL()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read site file %s: %w", path, err)
	}

	if err := profile.overlay(raw); err != nil {
		return nil, fmt.Errorf("site file %s: %w", path, err)
	}
	if err := profile.checkURL(); err != nil {
		return nil, err
	}

	logger.Info("Site profile loaded", map[string]interface{}{
		"path":   path,
		"routes": len(profile.Registry.Routes()),
	})
	return profile, nil
}

// checkURL rejects a site URL that canonical links cannot be built from.
func (p *Profile) checkURL() error {
	if p.URL != "" && !validator.ValidateURL(p.URL) {
		return fmt.Errorf("site url %q must be an absolute http(s) URL", p.URL)
	}
	return nil
}

func (p *Profile) overlay(raw []byte) error {
	var file fileProfile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}

	if v := strings.TrimSpace(file.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(file.Title); v != "" {
		p.Defaults.Title = v
	}
	if v := strings.TrimSpace(file.Description); v != "" {
		p.Defaults.Description = v
	}
	if len(file.Keywords) > 0 {
		p.Defaults.Keywords = append([]string(nil), file.Keywords...)
	}
	if v := strings.TrimSpace(file.URL); v != "" {
		p.URL = v
	}
	if v := strings.TrimSpace(file.Brand); v != "" {
		p.Brand.Label = v
	}
	if v := strings.TrimSpace(file.Language); v != "" {
		language, err := lang.Normalize(v)
		if err != nil {
			return err
		}
		p.Language = language
	}
	for id, target := range file.Assets {
		p.Assets[id] = target
	}

	if len(file.Navigation) == 0 {
		return nil
	}

	routes := make([]navigation.Route, 0, len(file.Navigation))
	for _, entry := range file.Navigation {
		route, err := entry.route()
		if err != nil {
			return err
		}
		routes = append(routes, route)
	}

	registry, err := navigation.NewRegistry(routes...)
	if err != nil {
		return err
	}
	p.Registry = registry
	return nil
}
