package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors.
var (
	ErrTrailingRequiresSMAFilter  = errors.New("full trailing stop requires the SMA direction filter to be enabled")
	ErrCashTrailRequiresSMAFilter = errors.New("cash-and-trail requires the SMA direction filter to be enabled")
	ErrTrailingModesExclusive     = errors.New("full trailing stop and cash-and-trail are mutually exclusive")
	ErrInvalidTradingWindow       = errors.New("invalid trading time window")
)

// Config holds every parameter of a backtest run. It is constructed once,
// validated, and passed by value into the frame builder, event detector and
// trade simulator; nothing mutates it afterwards.
type Config struct {
	Session   SessionConfig   `toml:"session"`
	Detection DetectionConfig `toml:"detection"`
	Trading   TradingConfig   `toml:"trading"`
	Filters   FilterConfig    `toml:"filters"`
	Grid      GridConfig      `toml:"grid"`
	Storage   StorageConfig   `toml:"storage"`
}

// Duration wraps time.Duration so TOML files can use strings like "10m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// SessionConfig describes the instrument session being processed.
type SessionConfig struct {
	Date          string   `toml:"date"`           // YYYYMMDD tag for input/output naming
	TickSize      float64  `toml:"tick_size"`      // price bucketing increment; 0 disables bucketing
	PointValue    float64  `toml:"point_value"`    // currency per point
	FrameStep     Duration `toml:"frame_step"`     // fixed frame interval
	ProfileWindow Duration `toml:"profile_window"` // rolling profile trailing window
	SMAPeriod     int      `toml:"sma_period"`
}

// DetectionConfig parameterizes big-volume event detection.
type DetectionConfig struct {
	BigVolumeTrigger float64  `toml:"big_volume_trigger"`
	BigVolumeTimeout Duration `toml:"big_volume_timeout"`
	ReversionExpand  float64  `toml:"reversion_expand"`
	ReversionTimeout Duration `toml:"reversion_timeout"`
}

// TradingConfig holds fixed exit distances and the trailing variants.
type TradingConfig struct {
	TPPoints float64 `toml:"tp_points"`
	SLPoints float64 `toml:"sl_points"`

	// Full trailing stop: replaces the fixed take-profit entirely.
	TrailingStopEnabled  bool    `toml:"trailing_stop_enabled"`
	TrailingStopDistance float64 `toml:"trailing_stop_distance"`

	// Cash-and-trail hybrid: fixed stop until the activation profit is
	// reached, then a trailing stop at the given distance.
	CashTrailingEnabled    bool    `toml:"cash_trailing_enabled"`
	CashTrailingActivation float64 `toml:"cash_trailing_activation"`
	CashTrailingDistance   float64 `toml:"cash_trailing_distance"`
}

// FilterConfig gates which simulated trades are recorded.
type FilterConfig struct {
	BySMA bool `toml:"by_sma"`

	TimeOfDay        bool   `toml:"time_of_day"`
	StartTradingTime string `toml:"start_trading_time"` // HH:MM:SS
	EndTradingTime   string `toml:"end_trading_time"`   // HH:MM:SS
}

// GridConfig parameterizes the optional pyramided second entry.
type GridConfig struct {
	Enabled  bool    `toml:"enabled"`
	Expand   float64 `toml:"expand"`    // distance of the second entry beyond the first
	TPPoints float64 `toml:"tp_points"` // take profit from average entry (ignored under trailing)
	SLPoints float64 `toml:"sl_points"` // stop distance beyond the second entry level
}

// StorageConfig selects backing stores for a run.
type StorageConfig struct {
	PostgresDSN   string `toml:"postgres_dsn"`
	ClickhouseDSN string `toml:"clickhouse_dsn"`
	UseMemory     bool   `toml:"use_memory"`
}

// Defaults returns the built-in configuration, matching a 1-second frame
// over a 1-second profile window on a 0.25-tick instrument.
func Defaults() Config {
	return Config{
		Session: SessionConfig{
			TickSize:      0.25,
			PointValue:    20.0,
			FrameStep:     Duration{time.Second},
			ProfileWindow: Duration{time.Second},
			SMAPeriod:     200,
		},
		Detection: DetectionConfig{
			BigVolumeTrigger: 200,
			BigVolumeTimeout: Duration{10 * time.Minute},
			ReversionExpand:  10,
			ReversionTimeout: Duration{3 * time.Minute},
		},
		Trading: TradingConfig{
			TPPoints:               5.0,
			SLPoints:               9.0,
			TrailingStopDistance:   0.75,
			CashTrailingActivation: 25.0,
			CashTrailingDistance:   10.0,
		},
		Filters: FilterConfig{
			StartTradingTime: "00:00:00",
			EndTradingTime:   "23:59:59",
		},
		Grid: GridConfig{
			Expand:   5.0,
			TPPoints: 4.0,
			SLPoints: 3.0,
		},
		Storage: StorageConfig{
			UseMemory: true,
		},
	}
}

// Validate checks cross-field constraints. The trailing variants depend on
// the SMA direction filter; enabling them without it is rejected here rather
// than silently leaving them inactive.
func (c Config) Validate() error {
	if c.Trading.TrailingStopEnabled && !c.Filters.BySMA {
		return ErrTrailingRequiresSMAFilter
	}
	if c.Trading.CashTrailingEnabled && !c.Filters.BySMA {
		return ErrCashTrailRequiresSMAFilter
	}
	if c.Trading.TrailingStopEnabled && c.Trading.CashTrailingEnabled {
		return ErrTrailingModesExclusive
	}
	if c.Filters.TimeOfDay {
		start, err := ParseClock(c.Filters.StartTradingTime)
		if err != nil {
			return fmt.Errorf("%w: start %q: %v", ErrInvalidTradingWindow, c.Filters.StartTradingTime, err)
		}
		end, err := ParseClock(c.Filters.EndTradingTime)
		if err != nil {
			return fmt.Errorf("%w: end %q: %v", ErrInvalidTradingWindow, c.Filters.EndTradingTime, err)
		}
		if end < start {
			return fmt.Errorf("%w: end %q before start %q", ErrInvalidTradingWindow, c.Filters.EndTradingTime, c.Filters.StartTradingTime)
		}
	}
	return nil
}

// Clock is a time of day expressed as seconds since midnight.
type Clock int

// ParseClock parses an HH:MM:SS clock time.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, err
	}
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// ClockOf extracts the clock time of a timestamp.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
