//go:build windows || ((linux || darwin) && cgo)

package clipboard

import (
	"sync"

	"github.com/juju/errors"
	native "golang.design/x/clipboard"
)

var (
	detectOnce sync.Once
	detected   AsyncWriter
	detectErr  error
)

// DetectAsync reports the native clipboard capability. The probe runs once
// per process; later calls return the cached answer.
func DetectAsync() (AsyncWriter, error) {
	detectOnce.Do(func() {
		if err := native.Init(); err != nil {
			detectErr = errors.NewNotSupported(err, "native clipboard")
			return
		}
		detected = nativeClipboard{}
	})
	return detected, detectErr
}

type nativeClipboard struct{}

func (nativeClipboard) WriteText(text string) (<-chan struct{}, error) {
	overwritten := native.Write(native.FmtText, []byte(text))
	if overwritten == nil {
		return nil, errors.New("native clipboard rejected the write")
	}
	return overwritten, nil
}
