package mmd2img

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyDiagram  = errors.New("diagram code cannot be empty")
	ErrRenderTimeout = errors.New("rendering timeout, diagram may be too complex or invalid")
	ErrNoOutput      = errors.New("no renderable output produced")

	// Browser lifecycle errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrEngineStopped  = errors.New("engine is stopped")

	// Render configuration validation errors.
	ErrInvalidTheme      = errors.New("invalid theme")
	ErrInvalidLook       = errors.New("invalid look")
	ErrInvalidFormat     = errors.New("invalid output format")
	ErrInvalidScale      = errors.New("invalid scale factor")
	ErrInvalidDimensions = errors.New("invalid viewport dimensions")

	// Capture errors.
	ErrScreenshot    = errors.New("screenshot capture failed")
	ErrPDFGeneration = errors.New("PDF generation failed")
	ErrPostProcess   = errors.New("image post-processing failed")

	// Cache errors.
	ErrCacheWrite = errors.New("failed to write cache index")
)
