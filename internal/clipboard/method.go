package clipboard

import (
	"strings"

	"github.com/juju/errors"
)

// Method names the mechanism a Writer uses to reach the clipboard.
type Method string

const (
	MethodAuto   Method = "auto"
	MethodAsync  Method = "async"
	MethodLegacy Method = "legacy"
)

// ParseMethod accepts "auto", "async" or "legacy". An empty string means auto.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodAuto:
		return MethodAuto, nil
	case MethodAsync:
		return MethodAsync, nil
	case MethodLegacy:
		return MethodLegacy, nil
	}
	return "", errors.NotValidf("clipboard method %q", s)
}
