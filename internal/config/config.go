package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/cardiosplit/internal/cue"
	"github.com/lowaak/cardiosplit/internal/interval"
)

const envPrefix = "CARDIOSPLIT"

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SettingsConfig struct {
	File string `mapstructure:"file"`
}

type TickConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type PlanConfig struct {
	Policy string `mapstructure:"policy"`
}

type CueConfig struct {
	Assets    map[string]string `mapstructure:"assets"`
	QueueSize int               `mapstructure:"queue_size"`
	Bell      bool              `mapstructure:"bell"`
}

type PermissionConfig struct {
	Location bool `mapstructure:"location"`
	Activity bool `mapstructure:"activity"`
}

type SensorConfig struct {
	Simulate bool          `mapstructure:"simulate"`
	RunPace  time.Duration `mapstructure:"run_pace"`
	WalkPace time.Duration `mapstructure:"walk_pace"`
}

type FootPodConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Address     string        `mapstructure:"address"`
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
}

// Config is the resolved application configuration
type Config struct {
	Log         LogConfig        `mapstructure:"log"`
	Settings    SettingsConfig   `mapstructure:"settings"`
	Tick        TickConfig       `mapstructure:"tick"`
	Plan        PlanConfig       `mapstructure:"plan"`
	Cues        CueConfig        `mapstructure:"cues"`
	Permissions PermissionConfig `mapstructure:"permissions"`
	Sensors     SensorConfig     `mapstructure:"sensors"`
	FootPod     FootPodConfig    `mapstructure:"footpod"`
}

// Policy returns the parsed plan policy
func (c Config) Policy() interval.Policy {
	p, _ := interval.ParsePolicy(c.Plan.Policy)
	return p
}

// CueTable returns the cue table with configured asset overrides applied
func (c Config) CueTable() (map[cue.ID]cue.Spec, error) {
	return cue.TableWithAssets(c.Cues.Assets)
}

// Dir returns ~/.cardiosplit
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".cardiosplit")
}

// SetDefaults registers every key with its default value. Keys must be
// known to viper for environment overrides to apply.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.file", filepath.Join(Dir(), "cardiosplit.log"))
	v.SetDefault("log.max_size_mb", 5)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("settings.file", filepath.Join(Dir(), "settings.json"))
	v.SetDefault("tick.interval", time.Second)
	v.SetDefault("plan.policy", interval.PolicyRunFirst.String())
	v.SetDefault("cues.assets", map[string]string{})
	v.SetDefault("cues.queue_size", cue.DefaultQueueSize)
	v.SetDefault("cues.bell", true)
	v.SetDefault("permissions.location", true)
	v.SetDefault("permissions.activity", true)
	v.SetDefault("sensors.simulate", true)
	v.SetDefault("sensors.run_pace", 6*time.Minute)
	v.SetDefault("sensors.walk_pace", 12*time.Minute)
	v.SetDefault("footpod.enabled", false)
	v.SetDefault("footpod.address", "")
	v.SetDefault("footpod.scan_timeout", 15*time.Second)
}

// flagKeys maps command line flags onto config keys
var flagKeys = map[string]string{
	"log-file":        "log.file",
	"settings":        "settings.file",
	"tick":            "tick.interval",
	"policy":          "plan.policy",
	"bell":            "cues.bell",
	"simulate":        "sensors.simulate",
	"footpod":         "footpod.enabled",
	"footpod-address": "footpod.address",
}

// AddFlags defines the flags that override config keys
func AddFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default "+filepath.Join(Dir(), "config.yaml")+")")
	flags.String("log-file", "", "log file path")
	flags.String("settings", "", "settings file path")
	flags.Duration("tick", time.Second, "tick interval")
	flags.String("policy", interval.PolicyRunFirst.String(), "leftover time policy: run-first or trailing-walk")
	flags.Bool("bell", true, "ring the terminal bell on cues")
	flags.Bool("simulate", true, "feed the session from simulated GPS and pedometer")
	flags.Bool("footpod", false, "connect a Bluetooth running speed and cadence sensor")
	flags.String("footpod-address", "", "foot pod address (default: first one found)")
}

// BindFlags binds the flags defined by AddFlags into v. Only flags the
// user actually set override lower layers.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load resolves configuration from defaults, the config file, CARDIOSPLIT_*
// environment variables and bound flags, in increasing precedence.
// An explicit configFile must exist; the default one is optional.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Tick.Interval <= 0 {
		return fmt.Errorf("tick.interval must be > 0, got %v", c.Tick.Interval)
	}
	if _, err := interval.ParsePolicy(c.Plan.Policy); err != nil {
		return err
	}
	if _, err := c.CueTable(); err != nil {
		return fmt.Errorf("cues.assets: %w", err)
	}
	if c.Sensors.RunPace <= 0 || c.Sensors.WalkPace <= 0 {
		return errors.New("sensors.run_pace and sensors.walk_pace must be > 0")
	}
	return nil
}
