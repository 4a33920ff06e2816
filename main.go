package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/lozord/dreamrug-synth/internal/driver/otoplayer"
	"github.com/lozord/dreamrug-synth/internal/driver/pastream"
	"github.com/lozord/dreamrug-synth/internal/driver/sim"
	"github.com/lozord/dreamrug-synth/internal/driver/wavsink"
	"github.com/lozord/dreamrug-synth/internal/synth"
)

var (
	configFile = flag.String("config", "", "path to a TOML config file")
	driverName = flag.String("driver", "", "output driver: sim, portaudio or oto (overrides the config file)")
	wavPath    = flag.String("wav", "", "record output to this WAV file (sim driver only)")
	holdNotes  = flag.String("notes", "", "comma-separated notes to hold from startup, e.g. A4,C#4")
	duration   = flag.Duration("duration", 0, "stop after this long; 0 runs until EOF, quit or a signal")
	offline    = flag.Bool("offline", false, "render -duration of audio as fast as possible (sim driver only)")
)

func main() {
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting up and reading commands from stdin")
	if err := doMain(ctx, os.Stdin, os.Stdout); err != nil {
		log.Exitf("failed to run: %v", err)
	}
}

// options are the flag values doMain acts on.
type options struct {
	configFile string
	driver     string
	wavPath    string
	notes      string
	duration   time.Duration
	offline    bool
}

func flagOptions() options {
	return options{
		configFile: *configFile,
		driver:     *driverName,
		wavPath:    *wavPath,
		notes:      *holdNotes,
		duration:   *duration,
		offline:    *offline,
	}
}

func doMain(ctx context.Context, input io.Reader, output io.Writer) error {
	return run(ctx, flagOptions(), input, output)
}

func run(ctx context.Context, opts options, input io.Reader, output io.Writer) error {
	cfg := DefaultIOConfig()
	if opts.configFile != "" {
		var err error
		if cfg, err = ParseFromFile(opts.configFile); err != nil {
			return err
		}
	}
	if opts.driver != "" {
		cfg.Output.Driver = opts.driver
	}
	if opts.wavPath != "" {
		cfg.Output.WavPath = opts.wavPath
	}

	scfg, err := cfg.Instrument()
	if err != nil {
		return err
	}
	keys, err := cfg.KeyMap()
	if err != nil {
		return err
	}
	s, err := synth.New(scfg)
	if err != nil {
		return err
	}
	ctl := NewController(s, keys)
	if opts.notes != "" {
		if err := ctl.Exec("on "+strings.ReplaceAll(opts.notes, ",", " "), output); err != nil {
			return fmt.Errorf("bad -notes: %w", err)
		}
	}

	var limit int64
	if opts.offline {
		if opts.duration <= 0 {
			return errors.New("-offline needs a positive -duration")
		}
		// Any positive duration renders at least one sample.
		limit = int64(math.Ceil(opts.duration.Seconds() * float64(scfg.SampleRate)))
	}
	drv, err := newDriver(cfg, opts.offline, limit)
	if err != nil {
		return err
	}
	if err := s.Start(drv); err != nil {
		_ = drv.Stop()
		return err
	}
	sc := s.Config()
	log.Infof("streaming %d notes at %d Hz through the %s driver", sc.NoteCount, sc.SampleRate, cfg.Output.Driver)

	runCtx := ctx
	if opts.duration > 0 && !opts.offline {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}
	var finished <-chan struct{}
	if e, ok := drv.(*sim.Engine); ok {
		finished = e.Done()
	}
	// Stdin running dry only ends the run when nothing else bounds it.
	endOnEOF := opts.duration <= 0

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		err := RunCommands(gctx, input, output, ctl, isTerminal(input))
		if err == nil && endOnEOF && gctx.Err() == nil {
			return errQuit
		}
		return err
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-finished:
			return errQuit
		}
	})
	runErr := g.Wait()
	if errors.Is(runErr, errQuit) {
		runErr = nil
	}

	stopErr := s.Stop()
	report(s.Stats())
	return errors.Join(runErr, stopErr)
}

func newDriver(cfg *IOConfig, offline bool, offlineSamples int64) (synth.Driver, error) {
	out := cfg.Output
	switch out.Driver {
	case "", "sim":
		opts := []sim.Option{sim.WithTick(out.Tick)}
		if offline {
			opts = append(opts, sim.Offline(offlineSamples))
		}
		if out.WavPath != "" {
			sink, err := wavsink.Create(out.WavPath, cfg.Synth.SampleRate, uint16(cfg.Synth.MaxOutputValue), out.Gain)
			if err != nil {
				return nil, err
			}
			opts = append(opts, sim.WithSink(sink))
			log.Infof("recording to %s", out.WavPath)
		}
		return sim.New(opts...), nil
	case "portaudio", "oto":
		if out.WavPath != "" || offline {
			return nil, fmt.Errorf("wav recording and offline rendering need the sim driver, not %q", out.Driver)
		}
		if out.Driver == "oto" {
			return otoplayer.New(out.Latency, out.Gain), nil
		}
		return pastream.New(out.FramesPerBuffer, out.Gain), nil
	default:
		return nil, fmt.Errorf("unknown output driver %q", out.Driver)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func report(st synth.Stats) {
	log.Infof("refilled %d halves, mean %v, max %v, budget %v", st.Refills, st.MeanRefill, st.MaxRefill, st.Budget)
	if st.Misses > 0 {
		log.Warningf("%d of %d refills overran the %v half-buffer deadline", st.Misses, st.Refills, st.Budget)
	}
}
