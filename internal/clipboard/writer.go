// Package clipboard writes text to the system clipboard.
//
// A Writer decides once, when it is built, whether the platform offers an
// asynchronous native clipboard API. If it does, every Copy is posted to the
// writer's event loop and runs after Copy has returned. If it doesn't, Copy
// stages the text in a hidden temporary file and runs a synchronous copy
// command on it before returning.
//
// Copy never fails from the caller's point of view. The outcome lands in the
// returned Receipt, which callers are free to ignore.
package clipboard

import (
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// AsyncWriter is an asynchronous clipboard capability. WriteText is only
// ever called from a Writer's event loop. The returned channel, if not nil,
// is closed when the clipboard is overwritten by someone else.
type AsyncWriter interface {
	WriteText(text string) (overwritten <-chan struct{}, err error)
}

type Options struct {
	// Method forces a path. The zero value means MethodAuto.
	Method Method

	// Async overrides native capability detection.
	Async AsyncWriter

	// Command is the legacy copy command. Defaults to DefaultCommand().
	Command CopyCommand

	// StagingDir holds legacy staging files. Defaults to os.TempDir().
	StagingDir string

	Logger *zap.Logger
}

// Writer copies text to the clipboard. It is safe for concurrent use;
// concurrent copies are not ordered against each other at the clipboard, the
// last one to complete wins.
type Writer struct {
	method Method
	async  AsyncWriter
	legacy *Legacy
	loop   *Loop
	logger *zap.Logger
}

func New(opts Options) (*Writer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	method := opts.Method
	if method == "" {
		method = MethodAuto
	}

	async := opts.Async
	switch method {
	case MethodAuto, MethodAsync:
		if async == nil {
			detected, err := DetectAsync()
			if err != nil {
				if method == MethodAsync {
					return nil, errors.Annotate(err, "async clipboard requested")
				}
				logger.Debug("Async clipboard unavailable, using legacy copy", zap.Error(err))
			}
			async = detected
		}
	case MethodLegacy:
		async = nil
	default:
		return nil, errors.NotValidf("clipboard method %q", method)
	}

	w := &Writer{
		async:  async,
		logger: logger,
	}

	if async != nil {
		w.method = MethodAsync
		w.loop = NewLoop()
	} else {
		command := opts.Command
		if command == nil {
			command = DefaultCommand()
		}
		w.method = MethodLegacy
		w.legacy = NewLegacy(opts.StagingDir, command)
	}

	logger.Debug("Clipboard writer ready", zap.String("method", string(w.method)))

	return w, nil
}

// Method returns the path every Copy on w takes.
func (w *Writer) Method() Method {
	return w.method
}

// Copy writes text to the clipboard.
//
// On the legacy path the copy has completed when Copy returns. On the async
// path the write is deferred to the event loop and Copy returns right away.
// Either way, errors and panics from the underlying mechanism end up in the
// Receipt and are never raised to the caller.
func (w *Writer) Copy(text string) *Receipt {
	receipt := newReceipt(w.method)

	w.logger.Debug("Copying to clipboard",
		zap.String("method", string(w.method)),
		zap.Int("bytes", len(text)),
	)

	if w.method == MethodLegacy {
		receipt.finish(nil, w.copyLegacy(text))
		return receipt
	}

	err := w.loop.Post(func() {
		receipt.finish(w.writeAsync(text))
	})
	if err != nil {
		receipt.finish(nil, err)
	}

	return receipt
}

// Close waits for pending async writes and releases the event loop. Copies
// issued after Close fail with ErrClosed on the async path.
func (w *Writer) Close() error {
	if w.loop != nil {
		w.loop.Close()
	}
	return nil
}

func (w *Writer) copyLegacy(text string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("legacy copy panicked: %v", p)
		}
	}()
	return w.legacy.Copy(text)
}

func (w *Writer) writeAsync(text string) (overwritten <-chan struct{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			overwritten = nil
			err = errors.Errorf("async write panicked: %v", p)
		}
	}()

	overwritten, err = w.async.WriteText(text)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return overwritten, nil
}
