package config

import (
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gpsbeacon/internal/gnss"
	"gpsbeacon/internal/i2c"
	"gpsbeacon/internal/identity"
	"gpsbeacon/internal/indicator"
	"gpsbeacon/internal/radio"
)

// Node addresses on the radio network.
const (
	DefaultAddress = 0x02
	DefaultDest    = 0x01
)

const DefaultIdentityPath = "~/.gpsbeacon/identity.img"

type Config struct {
	GNSS      GNSSConfig      `yaml:"gnss"`
	Identity  IdentityConfig  `yaml:"identity"`
	Radio     RadioConfig     `yaml:"radio"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type GNSSConfig struct {
	// Source is serial, sim or replay.
	Source        string        `yaml:"source"`
	Device        string        `yaml:"device"`
	Baud          int           `yaml:"baud"`
	ConfigRepeats int           `yaml:"config_repeats"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	Sim           SimConfig     `yaml:"sim"`
	Replay        ReplayConfig  `yaml:"replay"`
	Capture       CaptureConfig `yaml:"capture"`
}

type SimConfig struct {
	CenterLatDeg float64       `yaml:"center_lat_deg"`
	CenterLonDeg float64       `yaml:"center_lon_deg"`
	RadiusNm     float64       `yaml:"radius_nm"`
	Period       time.Duration `yaml:"period"`
	Interval     time.Duration `yaml:"interval"`
	NoFix        bool          `yaml:"no_fix"`
	Chatter      bool          `yaml:"chatter"`
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type CaptureConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
	Append bool   `yaml:"append"`
}

type IdentityConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	I2CBus      string `yaml:"i2c_bus"`
	I2CAddr     int    `yaml:"i2c_addr"`
	I2CWideAddr bool   `yaml:"i2c_wide_addr"`
}

type RadioConfig struct {
	FrequencyMHz float64       `yaml:"frequency_mhz"`
	TxPowerDBm   int           `yaml:"tx_power_dbm"`
	HighPower    *bool         `yaml:"high_power"`
	Address      int           `yaml:"address"`
	Dest         int           `yaml:"dest"`
	Listen       string        `yaml:"listen"`
	Peer         string        `yaml:"peer"`
	Retries      int           `yaml:"retries"`
	AckTimeout   time.Duration `yaml:"ack_timeout"`
}

type IndicatorConfig struct {
	Enable bool          `yaml:"enable"`
	Chip   string        `yaml:"chip"`
	Line   string        `yaml:"line"`
	Blink  time.Duration `yaml:"blink"`
}

type MetricsConfig struct {
	// Listen is the HTTP address for /metrics and /api/status. Empty disables.
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

func Load(path string) (Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "expand config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if err := cfg.GNSS.applyDefaults(); err != nil {
		return err
	}
	if err := cfg.Identity.applyDefaults(); err != nil {
		return err
	}
	if err := cfg.Radio.applyDefaults(); err != nil {
		return err
	}
	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.Line) == "" {
		return errors.New("indicator.line is required when indicator.enable is true")
	}
	if cfg.Indicator.Chip == "" {
		cfg.Indicator.Chip = "gpiochip0"
	}
	if cfg.Indicator.Blink <= 0 {
		cfg.Indicator.Blink = indicator.DefaultBlink
	}
	return nil
}

func (g *GNSSConfig) applyDefaults() error {
	g.Source = strings.ToLower(strings.TrimSpace(g.Source))
	if g.Source == "" {
		g.Source = "serial"
	}
	switch g.Source {
	case "serial", "sim", "replay":
	default:
		return errors.Errorf("gnss.source %q is not one of serial, sim, replay", g.Source)
	}
	if g.Baud == 0 {
		g.Baud = gnss.DefaultBaud
	}
	if g.Baud < 0 {
		return errors.New("gnss.baud must be > 0")
	}
	if g.ConfigRepeats == 0 {
		g.ConfigRepeats = gnss.DefaultRepeats
	}
	if g.ConfigRepeats < 0 {
		return errors.New("gnss.config_repeats must be > 0")
	}
	if g.PollInterval <= 0 {
		g.PollInterval = 5 * time.Millisecond
	}

	if g.Source == "replay" {
		if g.Replay.Path == "" {
			return errors.New("gnss.replay.path is required when gnss.source is replay")
		}
		if g.Replay.Speed == 0 {
			g.Replay.Speed = 1
		}
		if g.Replay.Speed < 0 {
			return errors.New("gnss.replay.speed must be > 0")
		}
		if g.Capture.Enable {
			return errors.New("gnss.capture cannot be used with gnss.source=replay")
		}
	}
	if g.Capture.Enable && g.Capture.Path == "" {
		return errors.New("gnss.capture.path is required when gnss.capture.enable is true")
	}
	var err error
	if g.Replay.Path, err = expand(g.Replay.Path); err != nil {
		return err
	}
	if g.Capture.Path, err = expand(g.Capture.Path); err != nil {
		return err
	}

	// Simulator defaults (safe even if unused).
	if g.Sim.CenterLatDeg == 0 && g.Sim.CenterLonDeg == 0 {
		g.Sim.CenterLatDeg = 51.4779
		g.Sim.CenterLonDeg = -0.0015
	}
	if g.Sim.RadiusNm <= 0 {
		g.Sim.RadiusNm = 0.5
	}
	if g.Sim.Period <= 0 {
		g.Sim.Period = 120 * time.Second
	}
	if g.Sim.Interval <= 0 {
		g.Sim.Interval = 10 * time.Second
	}
	return nil
}

func (c *IdentityConfig) applyDefaults() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = "file"
	}
	switch c.Backend {
	case "file":
		if c.Path == "" {
			c.Path = DefaultIdentityPath
		}
		var err error
		if c.Path, err = expand(c.Path); err != nil {
			return err
		}
	case "i2c":
		if c.I2CBus == "" {
			c.I2CBus = "/dev/i2c-1"
		}
		if c.I2CAddr == 0 {
			c.I2CAddr = i2c.DefaultEEPROMAddr
		}
		if c.I2CAddr < 0x03 || c.I2CAddr > 0x77 {
			return errors.Errorf("identity.i2c_addr 0x%02x out of range", c.I2CAddr)
		}
	default:
		return errors.Errorf("identity.backend %q is not one of file, i2c", c.Backend)
	}
	return nil
}

func (r *RadioConfig) applyDefaults() error {
	if r.Peer == "" {
		return errors.New("radio.peer is required")
	}
	if r.FrequencyMHz == 0 {
		r.FrequencyMHz = radio.DefaultFrequencyMHz
	}
	if r.TxPowerDBm == 0 {
		r.TxPowerDBm = radio.DefaultTxPowerDBm
	}
	if r.HighPower == nil {
		on := true
		r.HighPower = &on
	}
	if r.Address == 0 {
		r.Address = DefaultAddress
	}
	if r.Dest == 0 {
		r.Dest = DefaultDest
	}
	if r.Address < 0 || r.Address >= radio.BroadcastAddress {
		return errors.Errorf("radio.address %d out of range", r.Address)
	}
	if r.Dest < 0 || r.Dest > radio.BroadcastAddress {
		return errors.Errorf("radio.dest %d out of range", r.Dest)
	}
	if r.Retries == 0 {
		r.Retries = radio.DefaultRetries
	}
	if r.Retries < 0 {
		return errors.New("radio.retries must be > 0")
	}
	if r.AckTimeout <= 0 {
		r.AckTimeout = radio.DefaultAckTimeout
	}
	if err := r.Settings(radio.DefaultSyncWords).Validate(); err != nil {
		return errors.Wrap(err, "radio")
	}
	return nil
}

// Settings builds the radio settings for the given network sync words.
func (r RadioConfig) Settings(sync [2]byte) radio.Settings {
	return radio.Settings{
		FrequencyMHz: r.FrequencyMHz,
		TxPowerDBm:   r.TxPowerDBm,
		HighPower:    r.HighPower != nil && *r.HighPower,
		SyncWords:    sync,
		Address:      byte(r.Address),
	}
}

func (r RadioConfig) Link() radio.Config {
	return radio.Config{
		Listen:     r.Listen,
		Peer:       r.Peer,
		Retries:    r.Retries,
		AckTimeout: r.AckTimeout,
	}
}

func (c IdentityConfig) Storage() identity.StorageConfig {
	return identity.StorageConfig{
		Backend:     c.Backend,
		Path:        c.Path,
		I2CBus:      c.I2CBus,
		I2CAddr:     uint16(c.I2CAddr),
		I2CWideAddr: c.I2CWideAddr,
	}
}

func (c IndicatorConfig) LED() indicator.Config {
	return indicator.Config{Enable: c.Enable, Chip: c.Chip, Line: c.Line}
}

func expand(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	out, err := homedir.Expand(p)
	if err != nil {
		return "", errors.Wrapf(err, "expand %s", p)
	}
	return out, nil
}
