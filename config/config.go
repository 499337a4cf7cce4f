// Package config holds the generator's boot-time configuration.
//
// Firmware builds use DefaultConfig, which is the compiled-in configuration.
// Host builds (simulator, tests) may load overrides from JSON or YAML.
package config

import (
	"encoding/json"
	"errors"
)

var (
	ErrNoClock           = errors.New("clock rate must be non-zero")
	ErrNoPrescalers      = errors.New("prescaler table is empty")
	ErrBadPrescaler      = errors.New("prescaler values must be non-zero and ascending")
	ErrNoStepMagnitudes  = errors.New("step magnitude table is empty")
	ErrBadStepMagnitude  = errors.New("step magnitudes must be non-zero")
	ErrPrescalerIndex    = errors.New("prescaler index out of range")
	ErrStepMode          = errors.New("step mode out of range")
	ErrReloadRange       = errors.New("reload range is inverted")
	ErrReloadOutOfBounds = errors.New("default reload outside reload range")
	ErrTableTooLong      = errors.New("prescaler and step tables hold at most 256 entries")
)

// MaxTableLen bounds the prescaler and step tables; both are indexed by a uint8
const MaxTableLen = 256

// Pins maps the board's signals to GPIO numbers
type Pins struct {
	Signal       uint8 `json:"signal" yaml:"signal"`               // square wave output
	EncoderClock uint8 `json:"encoder_clock" yaml:"encoder_clock"` // coarse step edge
	EncoderDir   uint8 `json:"encoder_dir" yaml:"encoder_dir"`     // level sampled on the clock edge
	ModeButton   uint8 `json:"mode_button" yaml:"mode_button"`
	FineUp       uint8 `json:"fine_up" yaml:"fine_up"`
	FineReset    uint8 `json:"fine_reset" yaml:"fine_reset"`
	FineDown     uint8 `json:"fine_down" yaml:"fine_down"`

	// HD44780 in 4-bit mode
	LCDData [4]uint8 `json:"lcd_data" yaml:"lcd_data"`
	LCDE    uint8    `json:"lcd_e" yaml:"lcd_e"`
	LCDRS   uint8    `json:"lcd_rs" yaml:"lcd_rs"`
	LCDRW   uint8    `json:"lcd_rw" yaml:"lcd_rw"`
}

// Config is the complete generator configuration
type Config struct {
	// ClockRate is the timer input clock in Hz before prescaling
	ClockRate uint32 `json:"clock_rate" yaml:"clock_rate"`

	// Prescalers lists the hardware clock dividers in ascending order
	Prescalers []uint16 `json:"prescalers" yaml:"prescalers"`

	// StepMagnitudes lists the reload increments, one per step mode
	StepMagnitudes []uint16 `json:"step_magnitudes" yaml:"step_magnitudes"`

	// Boot state
	DefaultReload         uint16 `json:"default_reload" yaml:"default_reload"`
	DefaultPrescalerIndex uint8  `json:"default_prescaler_index" yaml:"default_prescaler_index"`
	DefaultStepMode       uint8  `json:"default_step_mode" yaml:"default_step_mode"`

	// ResetPrescalerIndex is selected by the fine-step reset button
	ResetPrescalerIndex uint8 `json:"reset_prescaler_index" yaml:"reset_prescaler_index"`

	// Reload adjustments saturate at [ReloadMin, ReloadMax] unless
	// ReloadWrap selects plain 16-bit wraparound.
	ReloadMin  uint16 `json:"reload_min" yaml:"reload_min"`
	ReloadMax  uint16 `json:"reload_max" yaml:"reload_max"`
	ReloadWrap bool   `json:"reload_wrap" yaml:"reload_wrap"`

	// DebounceMS is the quiet window after a coarse or fine step
	DebounceMS uint32 `json:"debounce_ms" yaml:"debounce_ms"`

	// RefreshOnModeCycle makes the step-size button redraw the display.
	// Off by default: the mode button only parks the cursor.
	RefreshOnModeCycle bool `json:"refresh_on_mode_cycle" yaml:"refresh_on_mode_cycle"`

	// LCD geometry
	Cols uint8 `json:"cols" yaml:"cols"`
	Rows uint8 `json:"rows" yaml:"rows"`

	Pins Pins `json:"pins" yaml:"pins"`
}

// DefaultConfig returns the compiled-in configuration of the generator board
func DefaultConfig() *Config {
	return &Config{
		ClockRate:             20000000,
		Prescalers:            []uint16{1, 8, 64, 256, 1024},
		StepMagnitudes:        []uint16{10000, 1000, 100, 10, 1},
		DefaultReload:         59286,
		DefaultPrescalerIndex: 1,
		DefaultStepMode:       0,
		ResetPrescalerIndex:   2,
		ReloadMin:             0,
		ReloadMax:             65535,
		DebounceMS:            100,
		Cols:                  20,
		Rows:                  4,
		Pins: Pins{
			Signal:       15,
			EncoderClock: 2,
			EncoderDir:   3,
			ModeButton:   4,
			FineUp:       5,
			FineReset:    6,
			FineDown:     7,
			LCDData:      [4]uint8{10, 11, 12, 13},
			LCDE:         9,
			LCDRS:        8,
			LCDRW:        14,
		},
	}
}

// LoadConfig parses a JSON configuration. Fields left out keep their
// compiled-in defaults.
func LoadConfig(jsonData []byte) (*Config, error) {
	cfg := DefaultConfig()

	err := json.Unmarshal(jsonData, cfg)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in values an override zeroed out
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if len(cfg.Prescalers) == 0 {
		cfg.Prescalers = def.Prescalers
	}
	if len(cfg.StepMagnitudes) == 0 {
		cfg.StepMagnitudes = def.StepMagnitudes
	}
	if cfg.Cols == 0 {
		cfg.Cols = def.Cols
	}
	if cfg.Rows == 0 {
		cfg.Rows = def.Rows
	}
}

// Validate checks the invariants the tuner relies on
func (c *Config) Validate() error {
	if c.ClockRate == 0 {
		return ErrNoClock
	}
	if len(c.Prescalers) == 0 {
		return ErrNoPrescalers
	}
	if len(c.Prescalers) > MaxTableLen || len(c.StepMagnitudes) > MaxTableLen {
		return ErrTableTooLong
	}
	for i, p := range c.Prescalers {
		if p == 0 || (i > 0 && p <= c.Prescalers[i-1]) {
			return ErrBadPrescaler
		}
	}
	if len(c.StepMagnitudes) == 0 {
		return ErrNoStepMagnitudes
	}
	for _, s := range c.StepMagnitudes {
		if s == 0 {
			return ErrBadStepMagnitude
		}
	}
	if int(c.DefaultPrescalerIndex) >= len(c.Prescalers) || int(c.ResetPrescalerIndex) >= len(c.Prescalers) {
		return ErrPrescalerIndex
	}
	if int(c.DefaultStepMode) >= len(c.StepMagnitudes) {
		return ErrStepMode
	}
	if !c.ReloadWrap {
		if c.ReloadMin > c.ReloadMax {
			return ErrReloadRange
		}
		if c.DefaultReload < c.ReloadMin || c.DefaultReload > c.ReloadMax {
			return ErrReloadOutOfBounds
		}
	}
	return nil
}

// LimitReload lowers the reload ceiling for hardware that cannot count
// shorter periods. The boot reload is pulled down with it.
func (c *Config) LimitReload(ceiling uint16) {
	if c.ReloadMax > ceiling {
		c.ReloadMax = ceiling
	}
	if c.DefaultReload > ceiling {
		c.DefaultReload = ceiling
	}
}

// LastPrescalerIndex returns the highest valid prescaler index
func (c *Config) LastPrescalerIndex() uint8 {
	return uint8(len(c.Prescalers) - 1)
}
