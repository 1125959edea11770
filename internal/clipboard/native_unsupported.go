// golang.design/x/clipboard needs cgo everywhere except Windows and aborts
// at runtime without it, so it is left out of such builds entirely.

//go:build !windows && !((linux || darwin) && cgo)

package clipboard

import (
	"runtime"

	"github.com/juju/errors"
)

// DetectAsync reports the native clipboard capability, which this build
// lacks.
func DetectAsync() (AsyncWriter, error) {
	return nil, errors.NotSupportedf("native clipboard on %s without cgo", runtime.GOOS)
}
