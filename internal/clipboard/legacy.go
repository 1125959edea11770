package clipboard

import (
	"io"
	"os"
	"sync"

	"github.com/juju/errors"
)

const stagingPattern = ".copydeck-stage-*"

// CopyCommand copies whatever the selection yields to the clipboard,
// synchronously.
type CopyCommand interface {
	CopySelection(selection io.Reader) error
}

// Legacy copies text by staging it in a hidden temporary file, selecting the
// whole file and handing it to a CopyCommand. The staging file is removed
// before Copy returns, whatever the command did.
//
// Copies are serialized per Legacy only. Two Legacy values sharing a staging
// directory may each have a staging file in it at the same time.
type Legacy struct {
	dir     string
	command CopyCommand

	// Serializes copies so this Legacy has at most one staging file at a time.
	mu sync.Mutex
}

// NewLegacy returns a Legacy that stages in dir. An empty dir means
// os.TempDir().
func NewLegacy(dir string, command CopyCommand) *Legacy {
	return &Legacy{
		dir:     dir,
		command: command,
	}
}

func (l *Legacy) Copy(text string) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stage, err := os.CreateTemp(l.dir, stagingPattern)
	if err != nil {
		return errors.Annotate(err, "creating staging file")
	}
	defer func() {
		stage.Close()
		if rmErr := os.Remove(stage.Name()); rmErr != nil && err == nil {
			err = errors.Annotate(rmErr, "removing staging file")
		}
	}()

	if _, err := io.WriteString(stage, text); err != nil {
		return errors.Annotate(err, "staging text")
	}
	if _, err := stage.Seek(0, io.SeekStart); err != nil {
		return errors.Annotate(err, "selecting staged text")
	}

	if err := l.command.CopySelection(stage); err != nil {
		return errors.Annotate(err, "copy command")
	}
	return nil
}
