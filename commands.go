package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/golang/glog"

	"github.com/lozord/dreamrug-synth/internal/synth"
)

// errQuit ends the command loop without being reported as a failure.
var errQuit = errors.New("quit")

const helpText = `commands:
  on <note>...      start notes (index, name like A4 or C#4, or a configured key)
  off <note>...     stop notes
  toggle <note>...  flip notes
  panic             stop every note
  status            show sounding notes and refill timing
  quit              exit
`

// Controller is the foreground side of the synth: it only ever flips note
// flags.
type Controller struct {
	synth *synth.Synth
	keys  map[string]int
}

func NewController(s *synth.Synth, keys map[string]int) *Controller {
	return &Controller{synth: s, keys: keys}
}

// Resolve maps a configured key name, note name or index to a note index.
func (c *Controller) Resolve(arg string) (int, error) {
	if note, ok := c.keys[strings.ToLower(arg)]; ok {
		return note, nil
	}
	return synth.ParseNote(arg)
}

// Exec runs one command line, writing any reply to out.
func (c *Controller) Exec(line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	log.V(1).Infof("command %q %v", cmd, args)

	switch cmd {
	case "on", "press":
		return c.each(args, func(note int) error { return c.synth.SetActive(note, true) })
	case "off", "release":
		return c.each(args, func(note int) error { return c.synth.SetActive(note, false) })
	case "toggle":
		return c.each(args, func(note int) error {
			return c.synth.SetActive(note, !c.synth.Bank().Active(note))
		})
	case "panic", "silence":
		c.synth.Silence()
		return nil
	case "status":
		c.status(out)
		return nil
	case "help", "?":
		fmt.Fprint(out, helpText)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (c *Controller) each(args []string, fn func(note int) error) error {
	if len(args) == 0 {
		return errors.New("missing note")
	}
	for _, arg := range args {
		note, err := c.Resolve(arg)
		if err != nil {
			return err
		}
		if err := fn(note); err != nil {
			return fmt.Errorf("note %q: %w", arg, err)
		}
	}
	return nil
}

func (c *Controller) status(out io.Writer) {
	bank := c.synth.Bank()
	active := bank.ActiveNotes()
	if len(active) == 0 {
		fmt.Fprintln(out, "silent")
	}
	for _, note := range active {
		fmt.Fprintf(out, "%2d %-4s %8.2f Hz\n", note, synth.NoteName(note), bank.Frequency(note))
	}
	sched := c.synth.Scheduler()
	fmt.Fprintf(out, "refills %d, late %d\n", sched.Refills(), sched.Misses())
}

// RunCommands executes lines from in until EOF, quit, or ctx is done. It
// returns errQuit when the user asked to quit, nil otherwise.
func RunCommands(ctx context.Context, in io.Reader, out io.Writer, c *Controller, prompt bool) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read commands: %w", err)
					}
				default:
				}
				return nil
			}
			if err := c.Exec(line, out); err != nil {
				if errors.Is(err, errQuit) {
					return err
				}
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}
