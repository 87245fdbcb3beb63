package main

import (
	"errors"
	"os"

	mmd2img "github.com/lbreton/go-mmd2img"
	"github.com/lbreton/go-mmd2img/internal/config"
)

// Exit codes for the mmd2img CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error (incl. render or validation failure)
	ExitUsage   = 2 // Invalid flags, config, or options
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mmd2img.ErrBrowserConnect) ||
		errors.Is(err, mmd2img.ErrPageCreate) ||
		errors.Is(err, mmd2img.ErrPageLoad) ||
		errors.Is(err, mmd2img.ErrPDFGeneration) ||
		errors.Is(err, mmd2img.ErrScreenshot) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadDocument) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, mmd2img.ErrCacheWrite) {
		return ExitIO
	}

	// Usage/config/options errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, mmd2img.ErrInvalidTheme) ||
		errors.Is(err, mmd2img.ErrInvalidLook) ||
		errors.Is(err, mmd2img.ErrInvalidFormat) ||
		errors.Is(err, mmd2img.ErrInvalidScale) ||
		errors.Is(err, mmd2img.ErrInvalidDimensions) ||
		errors.Is(err, ErrInvalidDuration) {
		return ExitUsage
	}

	return ExitGeneral
}
