package shell

import (
	"fmt"
	"strings"

	"portfolio-site/pkg/navigation"
)

// LayoutVariant selects the frame a page is rendered in.
type LayoutVariant int

const (
	Standard LayoutVariant = iota
	Landing
)

func (v LayoutVariant) String() string {
	switch v {
	case Standard:
		return "standard"
	case Landing:
		return "landing"
	}
	return fmt.Sprintf("LayoutVariant(%d)", int(v))
}

// ParseVariant maps a layout name from content frontmatter to a variant. An
// empty name means Standard.
func ParseVariant(name string) (LayoutVariant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard", "default", "index":
		return Standard, nil
	case "landing", "landingpage", "landing-page":
		return Landing, nil
	}
	return Standard, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Frame is the framing strategy of a variant: which template wraps the
// content and which style hints the navigation bar gets.
type Frame interface {
	Variant() LayoutVariant
	Template() string
	Hints(override *navigation.StyleHints) navigation.StyleHints
}

// StandardHints are the navigation hints of the standard frame.
var StandardHints = navigation.StyleHints{Border: "bb", Color: "black-70"}

// LandingHints are the fixed navigation hints of the landing frame.
var LandingHints = navigation.StyleHints{Border: navigation.BorderNone, Color: "black-70"}

type standardFrame struct{}

func (standardFrame) Variant() LayoutVariant { return Standard }
func (standardFrame) Template() string       { return "standard" }

func (standardFrame) Hints(override *navigation.StyleHints) navigation.StyleHints {
	if override != nil {
		return *override
	}
	return StandardHints
}

type landingFrame struct{}

func (landingFrame) Variant() LayoutVariant { return Landing }
func (landingFrame) Template() string       { return "landing" }

// Landing ignores overrides.
func (landingFrame) Hints(*navigation.StyleHints) navigation.StyleHints {
	return LandingHints
}

func frameFor(v LayoutVariant) (Frame, error) {
	switch v {
	case Standard:
		return standardFrame{}, nil
	case Landing:
		return landingFrame{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
}
