package hints

import (
	"strings"
	"testing"
)

// clearCIEnv blanks the CI-detection variables for one test.
func clearCIEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN"} {
		t.Setenv(v, "")
	}
}

func TestForBrowserConnect_SuggestsSandboxInCI(t *testing.T) {
	clearCIEnv(t)
	t.Setenv("CI", "true")

	orig := IsInContainer
	IsInContainer = func() bool { return false }
	defer func() { IsInContainer = orig }()

	got := ForBrowserConnect()
	if !strings.Contains(got, "ROD_NO_SANDBOX=1") {
		t.Errorf("ForBrowserConnect() = %q, want sandbox hint", got)
	}
	if !strings.Contains(got, "ROD_BROWSER_BIN") {
		t.Errorf("ForBrowserConnect() = %q, want browser-bin hint", got)
	}
	if !strings.HasPrefix(got, "\n  hint: ") {
		t.Errorf("ForBrowserConnect() = %q, want standard hint prefix", got)
	}
}

func TestForBrowserConnect_Container(t *testing.T) {
	clearCIEnv(t)

	orig := IsInContainer
	IsInContainer = func() bool { return true }
	defer func() { IsInContainer = orig }()

	if got := ForBrowserConnect(); !strings.Contains(got, "ROD_NO_SANDBOX=1") {
		t.Errorf("ForBrowserConnect() = %q, want sandbox hint in container", got)
	}
}

func TestForBrowserConnect_QuietWhenConfigured(t *testing.T) {
	clearCIEnv(t)
	t.Setenv("CI", "true")
	t.Setenv("ROD_NO_SANDBOX", "1")
	t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chromium")

	orig := IsInContainer
	IsInContainer = func() bool { return false }
	defer func() { IsInContainer = orig }()

	if got := ForBrowserConnect(); got != "" {
		t.Errorf("ForBrowserConnect() = %q, want no hints when already configured", got)
	}
}

func TestForTimeout(t *testing.T) {
	t.Parallel()

	got := ForTimeout()
	if !strings.Contains(got, "--timeout") {
		t.Errorf("ForTimeout() = %q", got)
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	paths := []string{"render.yaml", "/home/u/.config/mmd2img/render.yaml"}
	got := ForConfigNotFound(paths)
	if !strings.Contains(got, "--config") {
		t.Errorf("ForConfigNotFound() = %q, want --config hint", got)
	}
	if !strings.Contains(got, "/home/u/.config/mmd2img/render.yaml") {
		t.Errorf("ForConfigNotFound() = %q, want user config path", got)
	}
}

func TestForOutputDirectory(t *testing.T) {
	t.Parallel()

	if got := ForOutputDirectory("out"); !strings.Contains(got, "out") {
		t.Errorf("ForOutputDirectory() = %q", got)
	}
}

func TestFormatHints_Empty(t *testing.T) {
	t.Parallel()

	if got := formatHints(nil); got != "" {
		t.Errorf("formatHints(nil) = %q, want empty", got)
	}
}
