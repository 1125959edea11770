package clipboard

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"runtime"

	atotto "github.com/atotto/clipboard"
	"github.com/juju/errors"
	"golang.org/x/term"
)

// SystemCommand hands the selection to the platform copy utility (pbcopy,
// xclip, xsel, wl-copy, clip.exe, ...).
type SystemCommand struct{}

func (SystemCommand) CopySelection(selection io.Reader) error {
	if atotto.Unsupported {
		return errors.NotSupportedf("clipboard utility on %s", runtime.GOOS)
	}

	data, err := io.ReadAll(selection)
	if err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(atotto.WriteAll(string(data)))
}

// TerminalCommand asks the terminal emulator to set the clipboard through an
// OSC 52 escape sequence. With a nil Out it writes to the controlling
// terminal.
type TerminalCommand struct {
	Out io.Writer
}

func (c TerminalCommand) CopySelection(selection io.Reader) error {
	data, err := io.ReadAll(selection)
	if err != nil {
		return errors.Trace(err)
	}

	out := c.Out
	if out == nil {
		tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			return errors.NewNotSupported(err, "no controlling terminal")
		}
		defer tty.Close()
		out = tty
	}

	_, err = fmt.Fprintf(out, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString(data))
	return errors.Trace(err)
}

// SystemAvailable reports whether a platform copy utility is installed.
func SystemAvailable() bool {
	return !atotto.Unsupported
}

// DefaultCommand picks the platform utility when one is installed and falls
// back to OSC 52 otherwise.
func DefaultCommand() CopyCommand {
	if SystemAvailable() {
		return SystemCommand{}
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return TerminalCommand{Out: os.Stdout}
	}
	return TerminalCommand{}
}
