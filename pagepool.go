package mmd2img

import (
	"errors"
	"sync"

	"github.com/go-rod/rod"
)

// Page pool sizing constants.
const (
	// MinPoolSize ensures at least one page is available.
	MinPoolSize = 1

	// MaxPoolSize caps open pages to limit browser memory.
	MaxPoolSize = 16

	// DefaultPoolSize matches the render concurrency most diagrams need;
	// beyond it, renders queue on page acquisition.
	DefaultPoolSize = 5
)

// pagePool maintains a bounded set of browser pages. A page is leased
// exclusively to one render operation; on release it is reset to a
// blank document and returned, or closed when the pool is already full.
// Pages are created lazily up to the cap.
type pagePool struct {
	size int
	sem  chan *rod.Page

	mu      sync.Mutex
	created int
	closed  bool

	// Page operations, injectable for tests.
	newPage   func() (*rod.Page, error)
	resetPage func(*rod.Page) error
	closePage func(*rod.Page) error
}

// newPagePool creates a pool with capacity for n pages backed by the
// given page constructor.
func newPagePool(n int, newPage func() (*rod.Page, error)) *pagePool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	if n > MaxPoolSize {
		n = MaxPoolSize
	}
	return &pagePool{
		size:      n,
		sem:       make(chan *rod.Page, n),
		newPage:   newPage,
		resetPage: resetToBlank,
		closePage: func(p *rod.Page) error { return p.Close() },
	}
}

// resetToBlank clears a page between leases.
func resetToBlank(p *rod.Page) error {
	return p.Navigate("about:blank")
}

// acquire leases a page, creating one if the pool has spare capacity.
// Blocks when all pages are in use.
func (pp *pagePool) acquire() (*rod.Page, error) {
	// Reuse an idle page if one is available (non-blocking).
	select {
	case page, ok := <-pp.sem:
		if !ok {
			return nil, ErrEngineStopped
		}
		return page, nil
	default:
	}

	pp.mu.Lock()
	if pp.closed {
		pp.mu.Unlock()
		return nil, ErrEngineStopped
	}
	if pp.created < pp.size {
		pp.created++
		pp.mu.Unlock()

		page, err := pp.newPage()
		if err != nil {
			pp.mu.Lock()
			pp.created--
			pp.mu.Unlock()
			return nil, err
		}
		return page, nil
	}
	pp.mu.Unlock()

	// All pages created; wait for one to be released.
	page, ok := <-pp.sem
	if !ok {
		return nil, ErrEngineStopped
	}
	return page, nil
}

// release returns a page to the pool after resetting it. A page that
// fails to reset, or arrives after close, is discarded so a fresh one
// can take its slot.
func (pp *pagePool) release(page *rod.Page) {
	if page == nil {
		return
	}

	resetErr := pp.resetPage(page)

	pp.mu.Lock()
	defer pp.mu.Unlock()

	if pp.closed || resetErr != nil {
		_ = pp.closePage(page)
		pp.created--
		return
	}

	// Capacity accounting guarantees the buffered send cannot block:
	// idle pages never exceed created, which never exceeds cap(sem).
	select {
	case pp.sem <- page:
	default:
		_ = pp.closePage(page)
		pp.created--
	}
}

// close discards all idle pages and marks the pool unusable. In-flight
// pages are closed as they are released.
func (pp *pagePool) close() error {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	if pp.closed {
		return nil
	}
	pp.closed = true
	close(pp.sem)

	var errs []error
	for page := range pp.sem {
		if err := pp.closePage(page); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
