package capture

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/entrhq/scrapbook/pkg/capture/browser"
	"github.com/entrhq/scrapbook/pkg/logging"
)

// Mode is the command loop's state.
type Mode int

const (
	// ModeIdle awaits a command; save captures text.
	ModeIdle Mode = iota
	// ModeCopy is entered with "copy": the operator is selecting text in
	// the browser; save still captures text. Left with "leave".
	ModeCopy
	// ModeImage is entered with "image": save captures images instead of
	// text. Left with "leave".
	ModeImage
)

func (m Mode) String() string {
	switch m {
	case ModeCopy:
		return "copy"
	case ModeImage:
		return "image"
	default:
		return "idle"
	}
}

// Loop drives a capture session from operator commands. One command runs
// at a time: the prompt blocks until the previous command has completed,
// so saves and undos never overlap. Browser events arriving between
// commands are absorbed by the tracker's own locking.
type Loop struct {
	session  *Session
	prompter Prompter
	out      io.Writer
	log      *logging.Logger
	mode     Mode

	// closer releases the browser connection on exit; may be nil in tests.
	closer io.Closer
}

// NewLoop creates a command loop over a session. The closer, if non-nil,
// is closed when the operator exits.
func NewLoop(session *Session, prompter Prompter, out io.Writer, closer io.Closer) *Loop {
	logger, _ := logging.NewLogger("loop")
	return &Loop{
		session:  session,
		prompter: prompter,
		out:      out,
		log:      logger,
		closer:   closer,
	}
}

// Mode returns the loop's current state.
func (l *Loop) Mode() Mode {
	return l.mode
}

// Run blocks reading commands until the operator exits or the context is
// canceled. Command errors are reported to the operator and the loop
// continues; only "exit" (or prompt EOF) ends the run.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprintln(l.out, "scrapbook capture session")
	fmt.Fprintln(l.out, "commands: save [n], undo, check, view, list, next, prev, copy, image, leave, help, exit")

	for {
		if err := ctx.Err(); err != nil {
			return l.teardown()
		}

		line, err := l.prompter.Prompt(fmt.Sprintf("[%s]> ", l.mode))
		if err != nil {
			// EOF on stdin is an exit, not a failure.
			l.log.Infof("prompt closed: %v", err)
			return l.teardown()
		}

		done, err := l.Dispatch(line)
		if err != nil {
			fmt.Fprintf(l.out, "error: %v\n", err)
			l.log.Warnf("command %q: %v", line, err)
		}
		if done {
			return l.teardown()
		}
	}
}

// Dispatch executes one command line. It returns true when the loop
// should exit. Errors never carry a state transition: whatever mode the
// loop was in, it stays in.
func (l *Loop) Dispatch(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "save":
		return false, l.cmdSave(args)
	case "undo":
		return false, l.cmdUndo()
	case "check":
		return false, l.cmdCheck()
	case "view":
		return false, l.cmdView()
	case "list":
		return false, l.cmdList()
	case "next":
		return false, l.cmdShift(true)
	case "prev":
		return false, l.cmdShift(false)
	case "copy":
		l.mode = ModeCopy
		fmt.Fprintln(l.out, "copy mode: select text in the browser, then save")
		return false, nil
	case "image":
		l.mode = ModeImage
		fmt.Fprintln(l.out, "image mode: save <n> for the nth image, or save for a copied image URL")
		return false, nil
	case "leave":
		l.mode = ModeIdle
		return false, nil
	case "help":
		fmt.Fprintln(l.out, "save [n]  capture text (or image n in image mode)")
		fmt.Fprintln(l.out, "undo      delete the most recent capture")
		fmt.Fprintln(l.out, "check     show active tab and duplicate status")
		fmt.Fprintln(l.out, "view      show the last saved text artifact")
		fmt.Fprintln(l.out, "list      list open tabs")
		fmt.Fprintln(l.out, "next/prev switch the active tab")
		fmt.Fprintln(l.out, "copy/image/leave  switch capture mode")
		fmt.Fprintln(l.out, "exit      end the session")
		return false, nil
	case "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (l *Loop) cmdSave(args []string) error {
	if l.mode == ModeImage {
		return l.saveImage(args)
	}

	n, err := l.session.SaveText()
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "saved text artifact %d\n", n)
	return nil
}

func (l *Loop) saveImage(args []string) error {
	var srcURL string
	if len(args) > 0 {
		// save <n>: pull the nth image's address off the active tab.
		idx, err := strconv.Atoi(args[0])
		if err != nil || idx < 0 {
			return fmt.Errorf("save: %q is not an image index", args[0])
		}
		tab, ok := l.session.Tracker().Active()
		if !ok {
			return ErrNoActiveTab
		}
		expr := fmt.Sprintf("document.images[%d] ? document.images[%d].src : ''", idx, idx)
		result, err := tab.Evaluate(expr)
		if err != nil {
			return err
		}
		srcURL, _ = result.(string)
		if srcURL == "" {
			return fmt.Errorf("no image at index %d on the active tab", idx)
		}
	} else {
		// Plain save: the operator copied an image address.
		var err error
		srcURL, err = l.session.clip.Read()
		if err != nil {
			return err
		}
		srcURL = strings.TrimSpace(srcURL)
	}

	caption, err := l.prompter.Prompt("caption (optional): ")
	if err != nil {
		return err
	}

	n, err := l.session.SaveImage(srcURL, caption)
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "saved image artifact %d\n", n)
	return nil
}

func (l *Loop) cmdUndo() error {
	var n int
	var err error
	if l.mode == ModeImage {
		n, err = l.session.UndoImage()
	} else {
		n, err = l.session.UndoText()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "undid artifact %d\n", n)
	return nil
}

func (l *Loop) cmdCheck() error {
	tab, ok := l.session.Tracker().Active()
	if !ok {
		return ErrNoActiveTab
	}
	u := tab.URL()
	if l.session.IsSaved(u) {
		fmt.Fprintf(l.out, "%s — already saved\n", u)
	} else {
		fmt.Fprintf(l.out, "%s — not saved yet\n", u)
	}
	return nil
}

func (l *Loop) cmdView() error {
	content, err := l.session.LastText()
	if err != nil {
		return err
	}
	fmt.Fprintln(l.out, content)
	return nil
}

func (l *Loop) cmdList() error {
	infos := l.session.Tracker().List()
	if len(infos) == 0 {
		fmt.Fprintln(l.out, "no open tabs")
		return nil
	}
	for _, info := range infos {
		marker := " "
		if info.Active {
			marker = "*"
		}
		fmt.Fprintf(l.out, "%s %2d  %s\n", marker, info.Index, info.URL)
	}
	return nil
}

func (l *Loop) cmdShift(forward bool) error {
	var tab browser.Tab
	var ok bool
	if forward {
		tab, ok = l.session.Tracker().Next()
	} else {
		tab, ok = l.session.Tracker().Prev()
	}
	if !ok {
		return ErrNoActiveTab
	}
	fmt.Fprintf(l.out, "active tab: %s\n", tab.URL())
	return nil
}

func (l *Loop) teardown() error {
	fmt.Fprintln(l.out, "closing session")
	if l.closer != nil {
		if err := l.closer.Close(); err != nil {
			l.log.Errorf("teardown: %v", err)
			return err
		}
	}
	return nil
}
