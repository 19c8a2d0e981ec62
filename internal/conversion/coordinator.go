// Package conversion aggregates rasterized pages of one document into an
// ordered page sequence.
//
// A Coordinator moves through Loading -> Collecting -> Complete. Pages may
// arrive in any order and from several goroutines; the output is always
// ordered by page index and completion fires exactly once.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// OrientationOf classifies raster dimensions. Square pages are portrait.
func OrientationOf(width, height int) Orientation {
	if width > height {
		return Landscape
	}
	return Portrait
}

type State int

const (
	Loading State = iota
	Collecting
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Collecting:
		return "collecting"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PageImage is one rendered page. Index is 0-based.
type PageImage struct {
	Index    int
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

type Result struct {
	Pages       []PageImage
	Orientation Orientation
}

var (
	ErrNotLoaded      = errors.New("conversion: document not loaded")
	ErrAlreadyLoaded  = errors.New("conversion: document already loaded")
	ErrPageOutOfRange = errors.New("conversion: page index out of range")
	ErrDocumentLoad   = errors.New("conversion: document failed to load")
	ErrRenderTimeout  = errors.New("conversion: pages did not finish rendering in time")
)

type Coordinator struct {
	mu sync.Mutex

	state       State
	total       int
	slots       []*PageImage
	collected   int
	orientation Orientation
	oriented    bool

	result Result
	err    error
	done   chan struct{}

	onComplete func(Result)
	onFail     func(error)
}

// New creates a coordinator in the Loading state. Both callbacks are
// optional and are invoked at most once, outside the internal lock.
func New(onComplete func(Result), onFail func(error)) *Coordinator {
	return &Coordinator{
		state:       Loading,
		orientation: Portrait,
		done:        make(chan struct{}),
		onComplete:  onComplete,
		onFail:      onFail,
	}
}

// Loaded records the document page count and starts collecting.
// A document with zero pages completes immediately.
func (c *Coordinator) Loaded(totalPages int) error {
	if totalPages < 0 {
		return fmt.Errorf("conversion: negative page count %d", totalPages)
	}

	c.mu.Lock()
	if c.state != Loading {
		c.mu.Unlock()
		return ErrAlreadyLoaded
	}
	c.total = totalPages
	c.slots = make([]*PageImage, totalPages)
	c.state = Collecting
	fire := c.completeLocked()
	c.mu.Unlock()

	fire()
	return nil
}

// Arrive stores a rendered page. A repeated index overwrites its slot.
// Arrivals after completion or failure are ignored.
func (c *Coordinator) Arrive(page PageImage) error {
	c.mu.Lock()
	switch c.state {
	case Loading:
		c.mu.Unlock()
		return ErrNotLoaded
	case Complete, Failed:
		c.mu.Unlock()
		return nil
	}

	if page.Index < 0 || page.Index >= c.total {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0,%d)", ErrPageOutOfRange, page.Index, c.total)
	}

	if c.slots[page.Index] == nil {
		c.collected++
	}
	p := page
	c.slots[page.Index] = &p

	if page.Index == 0 && !c.oriented {
		c.orientation = OrientationOf(page.Width, page.Height)
		c.oriented = true
	}

	fire := c.completeLocked()
	c.mu.Unlock()

	fire()
	return nil
}

// Fail moves the coordinator to the terminal Failed state. It has no effect
// once the conversion completed or already failed.
func (c *Coordinator) Fail(err error) {
	if err == nil {
		err = errors.New("conversion: unknown failure")
	}

	c.mu.Lock()
	if c.state == Complete || c.state == Failed {
		c.mu.Unlock()
		return
	}
	c.state = Failed
	c.err = err
	close(c.done)
	cb := c.onFail
	c.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// Wait blocks until the conversion completes, fails or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == Failed {
			return Result{}, c.err
		}
		return c.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Progress reports collected and expected page counts. Expected is -1
// while the document is still loading.
func (c *Coordinator) Progress() (collected, expected int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Loading {
		return 0, -1
	}
	return c.collected, c.total
}

// completeLocked performs the Collecting -> Complete transition when every
// slot is filled and returns the callback to run after unlocking.
func (c *Coordinator) completeLocked() func() {
	if c.state != Collecting || c.collected != c.total {
		return func() {}
	}

	pages := make([]PageImage, 0, c.total)
	for _, p := range c.slots {
		pages = append(pages, *p)
	}
	c.result = Result{Pages: pages, Orientation: c.orientation}
	c.state = Complete
	c.slots = nil
	close(c.done)

	cb, res := c.onComplete, c.result
	return func() {
		if cb != nil {
			cb(res)
		}
	}
}
