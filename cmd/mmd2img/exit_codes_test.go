package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	mmd2img "github.com/lbreton/go-mmd2img"
	"github.com/lbreton/go-mmd2img/internal/config"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "generic", err: errors.New("boom"), want: ExitGeneral},
		{name: "render failed", err: ErrRenderFailed, want: ExitGeneral},
		{name: "validation failed", err: ErrValidationFailed, want: ExitGeneral},

		{name: "browser connect", err: mmd2img.ErrBrowserConnect, want: ExitBrowser},
		{name: "page create", err: mmd2img.ErrPageCreate, want: ExitBrowser},
		{name: "pdf generation", err: mmd2img.ErrPDFGeneration, want: ExitBrowser},
		{name: "wrapped browser error", err: fmt.Errorf("run: %w", mmd2img.ErrPageLoad), want: ExitBrowser},

		{name: "not exist", err: os.ErrNotExist, want: ExitIO},
		{name: "permission", err: os.ErrPermission, want: ExitIO},
		{name: "no input", err: ErrNoInput, want: ExitIO},
		{name: "read document", err: ErrReadDocument, want: ExitIO},
		{name: "write output", err: ErrWriteOutput, want: ExitIO},
		{name: "cache write", err: mmd2img.ErrCacheWrite, want: ExitIO},

		{name: "config not found", err: config.ErrConfigNotFound, want: ExitUsage},
		{name: "config parse", err: config.ErrConfigParse, want: ExitUsage},
		{name: "invalid theme", err: mmd2img.ErrInvalidTheme, want: ExitUsage},
		{name: "invalid format", err: mmd2img.ErrInvalidFormat, want: ExitUsage},
		{name: "invalid duration", err: ErrInvalidDuration, want: ExitUsage},
		{name: "wrapped usage error", err: fmt.Errorf("flag: %w", mmd2img.ErrInvalidScale), want: ExitUsage},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
