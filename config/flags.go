package config

import (
	"flag"
	"io"
	"time"
)

// Flags holds the command line options
type Flags struct {
	ConfigPath string
	Symbols    string
	Interval   time.Duration
	Sort       string
	EnvFile    string

	configSet bool
}

func ParseFlags(name string, args []string, output io.Writer) (*Flags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", DefaultConfigPath, "path to the YAML config file")
	fs.StringVar(&f.Symbols, "symbols", "", "comma-separated trading pairs, e.g. BTCUSDT,ETHUSDT")
	fs.DurationVar(&f.Interval, "interval", 0, "table refresh interval, e.g. 1s")
	fs.StringVar(&f.Sort, "sort", "", "row order: config or price")
	fs.StringVar(&f.EnvFile, "env", DefaultEnvFile, "dotenv file with environment overrides")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "config" {
			f.configSet = true
		}
	})
	return f, nil
}

// Load builds the effective configuration: defaults, YAML file, environment, then flags.
// A missing file is only an error when -config was given explicitly.
func (f *Flags) Load() (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if f.configSet {
		cfg, err = LoadConfig(f.ConfigPath)
	} else {
		cfg, err = LoadOrDefault(f.ConfigPath)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(f.EnvFile); err != nil {
		return nil, err
	}

	f.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Flags) Apply(cfg *Config) {
	if f.Symbols != "" {
		cfg.Binance.Symbols = ParseSymbols(f.Symbols)
	}
	if f.Interval > 0 {
		cfg.Display.RefreshInterval = f.Interval
	}
	if f.Sort != "" {
		cfg.Display.Sort = f.Sort
	}
}
