package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lozord/dreamrug-synth/internal/synth"
)

// IOConfig is the on-disk configuration: the instrument, where its output
// goes, and optional names for notes on the command line.
type IOConfig struct {
	Synth  SynthConfig      `toml:"synth"`
	Output OutputConfig     `toml:"output"`
	Keys   []*KeyToneConfig `toml:"keys"`
}

type SynthConfig struct {
	SampleRate         int     `toml:"sample_rate"`
	TableSize          int     `toml:"table_size"`
	BufferSize         int     `toml:"buffer_size"`
	NoteCount          int     `toml:"note_count"`
	ReferenceFrequency float64 `toml:"reference_frequency"`
	ReferenceIndex     int     `toml:"reference_index"`
	MaxOutputValue     int     `toml:"max_output_value"`
}

type OutputConfig struct {
	// Driver is one of "sim", "portaudio" or "oto".
	Driver          string        `toml:"driver"`
	FramesPerBuffer int           `toml:"frames_per_buffer"`
	Gain            float64       `toml:"gain"`
	WavPath         string        `toml:"wav_path"`
	Tick            time.Duration `toml:"tick"`
	Latency         time.Duration `toml:"latency"`
}

// KeyToneConfig binds a command-line name to a note.
type KeyToneConfig struct {
	KeyName string `toml:"key_name"`
	Note    string `toml:"note"`
}

// DefaultIOConfig returns the stock configuration. Files parsed with
// ParseFromFile only override what they set.
func DefaultIOConfig() *IOConfig {
	d := synth.DefaultConfig()
	return &IOConfig{
		Synth: SynthConfig{
			SampleRate:         d.SampleRate,
			TableSize:          d.TableSize,
			BufferSize:         d.BufferSize,
			NoteCount:          d.NoteCount,
			ReferenceFrequency: d.ReferenceFrequency,
			ReferenceIndex:     d.ReferenceIndex,
			MaxOutputValue:     int(d.MaxOutputValue),
		},
		Output: OutputConfig{
			Driver:          "sim",
			FramesPerBuffer: d.BufferSize / 2,
			Gain:            0.8,
		},
	}
}

func ParseFromFile(file string) (*IOConfig, error) {
	bs, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file at %q: %w", file, err)
	}

	cfg := DefaultIOConfig()
	if err := toml.Unmarshal(bs, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse IOConfig from TOML file %q: %w", file, err)
	}

	return cfg, nil
}

// Instrument converts and validates the [synth] section.
func (c *IOConfig) Instrument() (synth.Config, error) {
	s := c.Synth
	if s.MaxOutputValue <= 0 || s.MaxOutputValue > math.MaxUint16 {
		return synth.Config{}, fmt.Errorf("%w: max_output_value %d outside (0, %d]",
			synth.ErrInvalidConfig, s.MaxOutputValue, math.MaxUint16)
	}
	cfg := synth.Config{
		NoteCount:          s.NoteCount,
		TableSize:          s.TableSize,
		SampleRate:         s.SampleRate,
		BufferSize:         s.BufferSize,
		ReferenceFrequency: s.ReferenceFrequency,
		ReferenceIndex:     s.ReferenceIndex,
		MaxOutputValue:     uint16(s.MaxOutputValue),
	}
	if err := cfg.Validate(); err != nil {
		return synth.Config{}, err
	}
	return cfg, nil
}

// KeyMap returns the lower-cased key names mapped to note indices.
func (c *IOConfig) KeyMap() (map[string]int, error) {
	keys := make(map[string]int, len(c.Keys))
	for _, k := range c.Keys {
		name := strings.ToLower(strings.TrimSpace(k.KeyName))
		if name == "" {
			return nil, fmt.Errorf("key bound to note %q has no name", k.Note)
		}
		if _, dup := keys[name]; dup {
			return nil, fmt.Errorf("key %q bound more than once", k.KeyName)
		}
		note, err := synth.ParseNote(k.Note)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k.KeyName, err)
		}
		keys[name] = note
	}
	return keys, nil
}
