package mmd2img

import (
	"fmt"
	"time"
)

// Theme constants for the Mermaid renderer.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeForest  = "forest"
	ThemeNeutral = "neutral"
)

// Look constants for the visual rendering style.
const (
	LookClassic   = "classic"
	LookHandDrawn = "handDrawn"
)

// Output format constants.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatWebP = "webp"
)

// Background constants. Background also accepts any CSS color value.
const (
	BackgroundWhite       = "white"
	BackgroundTransparent = "transparent"
)

// Viewport and scale bounds.
const (
	DefaultWidth   = 1920
	DefaultHeight  = 1080
	DefaultScale   = 1.0
	DefaultPadding = 20
	MaxScale       = 4.0
)

// RenderConfig configures a single render operation.
// Zero values are replaced by defaults; see DefaultRenderConfig.
type RenderConfig struct {
	Theme      string  // "default", "dark", "forest", "neutral"
	Look       string  // "classic", "handDrawn"
	Background string  // "white", "transparent", or any CSS color
	Width      int     // viewport width in pixels
	Height     int     // viewport height in pixels
	Scale      float64 // device scale factor (1.0-4.0)
	Padding    int     // padding around the diagram in pixels
	FontFamily string  // CSS font-family for diagram text
	Format     string  // "png", "svg", "pdf", "webp"
}

// DefaultRenderConfig returns a config with all defaults applied.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Theme:      ThemeDefault,
		Look:       LookClassic,
		Background: BackgroundWhite,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Scale:      DefaultScale,
		Padding:    DefaultPadding,
		Format:     FormatPNG,
	}
}

// withDefaults fills zero-valued fields with defaults without mutating c.
func (c RenderConfig) withDefaults() RenderConfig {
	d := DefaultRenderConfig()
	if c.Theme == "" {
		c.Theme = d.Theme
	}
	if c.Look == "" {
		c.Look = d.Look
	}
	if c.Background == "" {
		c.Background = d.Background
	}
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.Scale == 0 {
		c.Scale = d.Scale
	}
	if c.Padding == 0 {
		c.Padding = d.Padding
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	return c
}

// Validate checks that all enum fields and numeric bounds are valid.
// Zero values pass validation because they resolve to defaults.
func (c RenderConfig) Validate() error {
	if !isValidTheme(c.Theme) {
		return fmt.Errorf("%w: %q (must be default, dark, forest, or neutral)", ErrInvalidTheme, c.Theme)
	}
	if !isValidLook(c.Look) {
		return fmt.Errorf("%w: %q (must be classic or handDrawn)", ErrInvalidLook, c.Look)
	}
	if !isValidFormat(c.Format) {
		return fmt.Errorf("%w: %q (must be png, svg, pdf, or webp)", ErrInvalidFormat, c.Format)
	}
	if c.Scale < 0 || c.Scale > MaxScale {
		return fmt.Errorf("%w: %.2f (must be between 0 and %.1f)", ErrInvalidScale, c.Scale, MaxScale)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	return nil
}

func isValidTheme(theme string) bool {
	switch theme {
	case "", ThemeDefault, ThemeDark, ThemeForest, ThemeNeutral:
		return true
	}
	return false
}

func isValidLook(look string) bool {
	switch look {
	case "", LookClassic, LookHandDrawn:
		return true
	}
	return false
}

func isValidFormat(format string) bool {
	switch format {
	case "", FormatPNG, FormatSVG, FormatPDF, FormatWebP:
		return true
	}
	return false
}

// RenderMetadata describes a successful render.
type RenderMetadata struct {
	Width  float64 // rendered diagram width in CSS pixels
	Height float64 // rendered diagram height in CSS pixels
	Bytes  int     // payload size
}

// RenderResult is the outcome of a render operation. Data is present
// if and only if Success is true; a failed render never carries bytes.
type RenderResult struct {
	Success  bool
	Format   string
	Data     []byte
	Error    string
	Metadata RenderMetadata
}

// failedRender builds a failure result from an error.
func failedRender(format string, err error) RenderResult {
	return RenderResult{Success: false, Format: format, Error: err.Error()}
}

// Request pairs diagram code with its render configuration for RenderBatch.
type Request struct {
	Code   string
	Config RenderConfig
}

// DiagramSource is a diagram extracted from a document. Ordinal is the
// 1-based position among the document's diagrams; Line is the 1-based
// line of the diagram's first content line within the document.
type DiagramSource struct {
	Code    string
	Path    string
	Ordinal int
	Line    int
}

// Option configures an Engine.
type Option func(*Engine)

// engineConfig holds internal configuration for Engine.
type engineConfig struct {
	timeout    time.Duration
	poolSize   int
	browserBin string
}

// defaultRenderTimeout bounds the wait for Mermaid to produce an SVG element.
const defaultRenderTimeout = 10 * time.Second

// WithRenderTimeout sets the per-render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRenderTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mmd2img: WithRenderTimeout duration must be positive")
	}
	return func(e *Engine) {
		e.cfg.timeout = d
	}
}

// WithPoolSize sets the browser page pool capacity.
func WithPoolSize(n int) Option {
	return func(e *Engine) {
		e.cfg.poolSize = n
	}
}

// WithBrowserBin sets an explicit Chrome/Chromium binary path,
// overriding the ROD_BROWSER_BIN environment variable.
func WithBrowserBin(path string) Option {
	return func(e *Engine) {
		e.cfg.browserBin = path
	}
}
