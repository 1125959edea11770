// Package source defines the pieces a clipboard payload is assembled from.
package source

import (
	"io"
	"strings"

	"github.com/juju/errors"
)

type Origin string

const (
	OriginText  Origin = "text"
	OriginStdin Origin = "stdin"
	OriginFile  Origin = "file"
	OriginGit   Origin = "git"
)

// Item is one piece of a payload.
type Item struct {
	Name     string
	Content  string
	Origin   Origin
	Encoding string
}

// Size returns the content length in bytes.
func (i Item) Size() int {
	return len(i.Content)
}

// FromArgs joins command line words into a single item, the way a shell
// would have passed them to echo.
func FromArgs(args []string) Item {
	return Item{
		Name:     "args",
		Content:  strings.Join(args, " "),
		Origin:   OriginText,
		Encoding: "UTF-8",
	}
}

// FromReader reads r to the end. Trailing newlines are kept; the payload is
// whatever was piped in.
func FromReader(name string, r io.Reader, maxSize int64) (Item, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Item{}, errors.Annotatef(err, "reading %s", name)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return Item{}, errors.NotValidf("%s larger than %d bytes", name, maxSize)
	}

	return Item{
		Name:     name,
		Content:  string(data),
		Origin:   OriginStdin,
		Encoding: "UTF-8",
	}, nil
}

// Total returns the combined size of items.
func Total(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Size()
	}
	return n
}
