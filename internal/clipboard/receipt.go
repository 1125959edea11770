package clipboard

import (
	"context"
)

// Receipt reports the outcome of a single Copy. Callers that don't care about
// the outcome can drop it.
type Receipt struct {
	method Method
	done   chan struct{}

	// Written once, before done is closed.
	err         error
	overwritten <-chan struct{}
}

func newReceipt(method Method) *Receipt {
	return &Receipt{
		method: method,
		done:   make(chan struct{}),
	}
}

func (r *Receipt) finish(overwritten <-chan struct{}, err error) {
	r.overwritten = overwritten
	r.err = err
	close(r.done)
}

// Method returns the path the copy took.
func (r *Receipt) Method() Method {
	return r.method
}

// Done is closed once the write has completed, successfully or not.
func (r *Receipt) Done() <-chan struct{} {
	return r.done
}

// Err returns the write error. It is nil while the write is pending.
func (r *Receipt) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the write completes or ctx is done.
func (r *Receipt) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Overwritten is closed when another program takes over the clipboard after
// this write. It is nil while pending, after a failed write, and for
// mechanisms that can't tell.
func (r *Receipt) Overwritten() <-chan struct{} {
	select {
	case <-r.done:
		return r.overwritten
	default:
		return nil
	}
}
