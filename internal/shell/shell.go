package shell

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"portfolio-site/internal/meta"
	"portfolio-site/pkg/lang"
	"portfolio-site/pkg/navigation"
	"portfolio-site/pkg/utils"
)

var (
	// ErrConfiguration wraps every error caused by bad page or site
	// configuration. Such errors abort the page render.
	ErrConfiguration = errors.New("shell configuration error")

	ErrUnknownVariant = errors.New("unknown layout variant")
)

//go:embed templates/*.html
var templateFS embed.FS

// Context is what the shell has established by the time page content is
// rendered.
type Context struct {
	CurrentPath string
	Variant     LayoutVariant
	Document    meta.Document
	Menu        navigation.Menu
}

// ContentFunc renders the page body. It is invoked after metadata injection
// and navigation, inside the frame.
type ContentFunc func(Context) (template.HTML, error)

// Page is one render request.
type Page struct {
	Variant  LayoutVariant
	Metadata meta.PageMetadata
	// Hints override the standard frame's navigation hints. Landing ignores
	// them.
	Hints   *navigation.StyleHints
	Content ContentFunc
}

type Options struct {
	Registry *navigation.Registry
	Bar      navigation.Bar
	Defaults meta.Defaults
	SiteName string
	SiteURL  string
	Language string

	// AssetModTime versions /static links in the head. Nil falls back to
	// stat-ing the path relative to the working directory.
	AssetModTime utils.AssetModTimeFunc
}

// Shell composes metadata, navigation and content into a document. It holds
// only immutable configuration and is safe for concurrent use.
type Shell struct {
	templates *template.Template
	registry  *navigation.Registry
	bar       navigation.Bar
	defaults  meta.Defaults
	siteName  string
	siteURL   string
	language  string
}

type viewData struct {
	Document meta.Document
	Menu     navigation.Menu
	Content  template.HTML
	Variant  string
}

func New(opts Options) (*Shell, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("%w: route registry is required", ErrConfiguration)
	}

	tmpl, err := template.New("shell").Funcs(utils.GetTemplateFuncs(opts.AssetModTime)).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse shell templates: %w", err)
	}

	language := strings.TrimSpace(opts.Language)
	if language == "" {
		language = lang.Default
	}

	return &Shell{
		templates: tmpl,
		registry:  opts.Registry,
		bar:       opts.Bar,
		defaults:  opts.Defaults,
		siteName:  opts.SiteName,
		siteURL:   opts.SiteURL,
		language:  language,
	}, nil
}

// SiteTitle is the configured default title.
func (s *Shell) SiteTitle() string {
	return strings.TrimSpace(s.defaults.Title)
}

// Menu renders the navigation bar for currentPath with the hints the
// variant's frame would use.
func (s *Shell) Menu(currentPath string, variant LayoutVariant) (navigation.Menu, error) {
	frame, err := frameFor(variant)
	if err != nil {
		return navigation.Menu{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	menu, err := s.bar.Render(currentPath, s.registry, frame.Hints(nil))
	if err != nil {
		return navigation.Menu{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return menu, nil
}

// Render writes the page framed by its variant. Nothing is written when any
// step fails. currentPath comes from the router and is never altered here.
func (s *Shell) Render(w io.Writer, currentPath string, r *http.Request, page Page) error {
	frame, err := frameFor(page.Variant)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if strings.TrimSpace(page.Metadata.Title) == "" {
		return fmt.Errorf("%w: %s: %w", ErrConfiguration, currentPath, meta.ErrEmptyTitle)
	}

	doc := meta.Document{Language: s.language}
	if err := meta.Inject(&doc, s.defaults.Resolve(page.Metadata)); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	meta.Enrich(&doc, s.siteName, s.siteURL, currentPath, r)

	menu, err := s.bar.Render(currentPath, s.registry, frame.Hints(page.Hints))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	var content template.HTML
	if page.Content != nil {
		content, err = page.Content(Context{
			CurrentPath: currentPath,
			Variant:     frame.Variant(),
			Document:    doc,
			Menu:        menu,
		})
		if err != nil {
			return fmt.Errorf("render content: %w", err)
		}
	}

	var buf bytes.Buffer
	data := viewData{
		Document: doc,
		Menu:     menu,
		Content:  content,
		Variant:  frame.Variant().String(),
	}
	if err := s.templates.ExecuteTemplate(&buf, frame.Template(), data); err != nil {
		return fmt.Errorf("render %s frame: %w", frame.Variant(), err)
	}

	_, err = w.Write(buf.Bytes())
	return err
}
