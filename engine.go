package mmd2img

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/lbreton/go-mmd2img/internal/fileutil"
)

// engineState tracks the Engine lifecycle.
type engineState int

const (
	stateUnstarted engineState = iota
	stateStarting
	stateReady
	stateStopped
)

// PDF margins in inches.
const pdfMarginInches = 0.25

// webpQuality is the lossy encoding quality for WebP screenshots.
const webpQuality = 95

// Engine renders Mermaid diagrams with a long-lived headless browser
// and a bounded pool of pages. An Engine owns exactly one browser
// process: construct a single Engine per process, share it by reference,
// and Stop it at shutdown.
//
// Render starts the browser lazily on first use and is safe to call
// concurrently; concurrency beyond the page pool size queues on page
// acquisition.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	browser *rod.Browser
	pool    *pagePool
	cfg     engineConfig

	// Seams for tests; production values are set by NewEngine.
	connect   func() (*rod.Browser, error)
	newPage   func() (*rod.Page, error)
	resetPage func(*rod.Page) error
	closePage func(*rod.Page) error
	renderFn  func(ctx context.Context, page *rod.Page, code string, cfg RenderConfig) RenderResult
}

// NewEngine creates an Engine with default configuration. The browser
// is not launched until Start or the first Render.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cfg: engineConfig{
			timeout:  defaultRenderTimeout,
			poolSize: DefaultPoolSize,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.connect = e.connectBrowser
	e.newPage = e.createPage
	e.resetPage = resetToBlank
	e.closePage = func(p *rod.Page) error { return p.Close() }
	e.renderFn = e.renderOnPage
	return e
}

// Start launches the browser and prepares the page pool. It is
// idempotent while the engine is running and fails after Stop.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked()
}

func (e *Engine) startLocked() error {
	switch e.state {
	case stateReady:
		return nil
	case stateStopped:
		return ErrEngineStopped
	}

	e.state = stateStarting
	browser, err := e.connect()
	if err != nil {
		e.state = stateUnstarted
		return err
	}
	e.browser = browser
	e.pool = newPagePool(e.cfg.poolSize, e.newPage)
	e.pool.resetPage = e.resetPage
	e.pool.closePage = e.closePage
	e.state = stateReady
	return nil
}

// Stop releases all pages and closes the browser. The engine cannot be
// restarted afterwards.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateStopped {
		return nil
	}
	prev := e.state
	e.state = stateStopped

	if prev != stateReady {
		return nil
	}

	var errs []error
	if e.pool != nil {
		if err := e.pool.close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		e.browser = nil
	}
	return errors.Join(errs...)
}

// connectBrowser launches headless Chrome and connects to it.
// Rod downloads a managed Chromium on first run if none is found.
func (e *Engine) connectBrowser() (*rod.Browser, error) {
	l := launcher.New()

	// Use a pre-installed browser if specified (Docker/CI environments).
	bin := e.cfg.browserBin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments.
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return browser, nil
}

// createPage opens a blank page for the pool.
func (e *Engine) createPage() (*rod.Page, error) {
	page, err := e.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return page, nil
}

// Render converts diagram text to image bytes in cfg.Format. Any
// failure, including timeouts, is reported through the result; the
// engine remains usable afterwards. The leased page is released on
// every exit path.
func (e *Engine) Render(ctx context.Context, code string, cfg RenderConfig) RenderResult {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return failedRender(cfg.Format, err)
	}
	if strings.TrimSpace(code) == "" {
		return failedRender(cfg.Format, ErrEmptyDiagram)
	}

	e.mu.Lock()
	err := e.startLocked()
	pool := e.pool
	e.mu.Unlock()
	if err != nil {
		return failedRender(cfg.Format, err)
	}

	page, err := pool.acquire()
	if err != nil {
		return failedRender(cfg.Format, err)
	}
	defer pool.release(page)

	return e.renderFn(ctx, page, code, cfg)
}

// RenderBatch renders all requests concurrently, bounded by the page
// pool, and returns results in input order. A failing diagram never
// cancels or corrupts its siblings.
func (e *Engine) RenderBatch(ctx context.Context, reqs []Request) []RenderResult {
	results := make([]RenderResult, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = e.Render(ctx, req.Code, req.Config)
		}(i, req)
	}
	wg.Wait()

	return results
}

// renderOnPage performs one render on an exclusively leased page.
func (e *Engine) renderOnPage(ctx context.Context, page *rod.Page, code string, cfg RenderConfig) RenderResult {
	if err := ctx.Err(); err != nil {
		return failedRender(cfg.Format, err)
	}

	doc, err := buildDocument(code, cfg)
	if err != nil {
		return failedRender(cfg.Format, err)
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(doc, "html")
	if err != nil {
		return failedRender(cfg.Format, err)
	}
	defer cleanup()

	// Honor the caller's deadline when it is sooner than the engine's.
	timeout := e.cfg.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return failedRender(cfg.Format, context.DeadlineExceeded)
	}

	p := page.Context(ctx)

	metrics := &proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.Width,
		Height:            cfg.Height,
		DeviceScaleFactor: cfg.Scale,
		Mobile:            false,
	}
	if err := metrics.Call(p); err != nil {
		return failedRender(cfg.Format, fmt.Errorf("%w: %v", ErrPageCreate, err))
	}

	transparent := cfg.Background == BackgroundTransparent
	if transparent {
		override := &proto.EmulationSetDefaultBackgroundColorOverride{
			Color: &proto.DOMRGBA{R: 0, G: 0, B: 0, A: floatPtr(0)},
		}
		if err := override.Call(p); err != nil {
			return failedRender(cfg.Format, fmt.Errorf("%w: %v", ErrPageCreate, err))
		}
	}

	if err := p.Navigate("file://" + tmpPath); err != nil {
		return failedRender(cfg.Format, fmt.Errorf("%w: %v", ErrPageLoad, err))
	}
	if err := p.Timeout(timeout).WaitLoad(); err != nil {
		return failedRender(cfg.Format, fmt.Errorf("%w: %v", ErrPageLoad, err))
	}

	// Mermaid signals completion by inserting an SVG element.
	el, err := p.Timeout(timeout).Element(diagramSelector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failedRender(cfg.Format, ErrRenderTimeout)
		}
		return failedRender(cfg.Format, fmt.Errorf("%w: %v", ErrNoOutput, err))
	}
	if el == nil {
		return failedRender(cfg.Format, ErrNoOutput)
	}

	rect, err := elementRect(el)
	if err != nil {
		return failedRender(cfg.Format, fmt.Errorf("%w: %v", ErrNoOutput, err))
	}

	var data []byte
	switch cfg.Format {
	case FormatSVG:
		data, err = captureSVG(el)
	case FormatPNG:
		data, err = el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err == nil && transparent {
			data, err = keyWhiteTransparent(data)
		}
	case FormatWebP:
		data, err = el.Screenshot(proto.PageCaptureScreenshotFormatWebp, webpQuality)
	case FormatPDF:
		data, err = capturePDF(p, timeout)
	}
	if err != nil {
		return failedRender(cfg.Format, fmt.Errorf("%w: %v", ErrScreenshot, err))
	}

	return RenderResult{
		Success: true,
		Format:  cfg.Format,
		Data:    data,
		Metadata: RenderMetadata{
			Width:  rect.width,
			Height: rect.height,
			Bytes:  len(data),
		},
	}
}

// svgRect holds the rendered element's bounding box in CSS pixels.
type svgRect struct {
	width  float64
	height float64
}

// elementRect reads the bounding box of the rendered SVG.
func elementRect(el *rod.Element) (svgRect, error) {
	obj, err := el.Eval(`() => {
		const r = this.getBoundingClientRect();
		return { width: r.width, height: r.height };
	}`)
	if err != nil {
		return svgRect{}, err
	}
	return svgRect{
		width:  obj.Value.Get("width").Num(),
		height: obj.Value.Get("height").Num(),
	}, nil
}

// captureSVG extracts the serialized SVG markup directly. No screenshot
// is involved, so the output is exact at any scale.
func captureSVG(el *rod.Element) ([]byte, error) {
	obj, err := el.Eval(`() => this.outerHTML`)
	if err != nil {
		return nil, err
	}
	return []byte(obj.Value.Str()), nil
}

// capturePDF prints the page to PDF.
func capturePDF(page *rod.Page, timeout time.Duration) ([]byte, error) {
	reader, err := page.Timeout(timeout).PDF(&proto.PagePrintToPDF{
		MarginTop:       floatPtr(pdfMarginInches),
		MarginBottom:    floatPtr(pdfMarginInches),
		MarginLeft:      floatPtr(pdfMarginInches),
		MarginRight:     floatPtr(pdfMarginInches),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
