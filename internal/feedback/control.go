// Package feedback implements a copy control: it copies a fixed text on
// click and shows a success state for a short while afterwards.
package feedback

import (
	"sync"
	"time"

	"github.com/KnockOutEZ/copydeck/internal/clipboard"
)

// DefaultSuccessTime is how long the success state stays up after a click.
const DefaultSuccessTime = time.Second

type Icon int

const (
	IconCopy Icon = iota
	IconSuccess
)

func (i Icon) String() string {
	switch i {
	case IconCopy:
		return "copy"
	case IconSuccess:
		return "success"
	}
	return "unknown"
}

// Event is passed to listeners when the control switches icons.
type Event struct {
	Source     *Control
	FromClient bool
}

// Copier is satisfied by *clipboard.Writer.
type Copier interface {
	Copy(text string) *clipboard.Receipt
}

// Control copies its text on Click. The success state is optimistic: it is
// entered before the write outcome is known.
type Control struct {
	copier      Copier
	successTime time.Duration

	mtx        sync.Mutex
	text       string
	icon       Icon
	timer      *time.Timer
	generation uint64

	onSuccess []func(Event)
	onCopy    []func(Event)
}

// NewControl returns a control in the copy state. A non-positive
// successTime means DefaultSuccessTime.
func NewControl(copier Copier, successTime time.Duration) *Control {
	if successTime <= 0 {
		successTime = DefaultSuccessTime
	}
	return &Control{
		copier:      copier,
		successTime: successTime,
		icon:        IconCopy,
	}
}

func (c *Control) SetCopyText(text string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.text = text
}

func (c *Control) CopyText() string {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.text
}

func (c *Control) Icon() Icon {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.icon
}

// OnSwitchToSuccess registers fn to run whenever a click switches the
// control to the success icon.
func (c *Control) OnSwitchToSuccess(fn func(Event)) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.onSuccess = append(c.onSuccess, fn)
}

// OnSwitchToCopy registers fn to run when the success window ends and the
// control returns to the copy icon.
func (c *Control) OnSwitchToCopy(fn func(Event)) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.onCopy = append(c.onCopy, fn)
}

// Click copies the control's text and enters the success state. Clicking
// again while in the success state restarts the window, so a burst of clicks
// fires a single switch-to-copy event rather than one per click.
func (c *Control) Click(fromClient bool) *clipboard.Receipt {
	ev := Event{Source: c, FromClient: fromClient}

	c.mtx.Lock()
	text := c.text
	listeners := append([]func(Event){}, c.onSuccess...)
	c.mtx.Unlock()

	fire(listeners, ev)

	receipt := c.copier.Copy(text)

	c.mtx.Lock()
	c.icon = IconSuccess
	c.generation++
	gen := c.generation
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.successTime, func() {
		c.reset(gen, ev)
	})
	c.mtx.Unlock()

	return receipt
}

// Stop cancels a pending switch back to the copy icon.
func (c *Control) Stop() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}

func (c *Control) reset(gen uint64, ev Event) {
	c.mtx.Lock()
	if gen != c.generation {
		c.mtx.Unlock()
		return
	}
	c.icon = IconCopy
	c.timer = nil
	listeners := append([]func(Event){}, c.onCopy...)
	c.mtx.Unlock()

	fire(listeners, ev)
}

func fire(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
