package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"
	DefaultEnvFile    = ".env"

	SortByConfig = "config"
	SortByPrice  = "price"

	EnvSymbols  = "TICKER_BOARD_SYMBOLS"
	EnvLogLevel = "TICKER_BOARD_LOG_LEVEL"
	EnvLogFile  = "TICKER_BOARD_LOG_FILE"
)

type Config struct {
	Binance BinanceConfig `yaml:"binance"`
	Stream  StreamConfig  `yaml:"stream"`
	Display DisplayConfig `yaml:"display"`
	Log     LogConfig     `yaml:"log"`
}

type BinanceConfig struct {
	ApiUrl           string   `yaml:"api_url"`
	WebsocketUrl     string   `yaml:"websocket_url"`
	Symbols          []string `yaml:"symbols"`
	SymbolsPerStream int      `yaml:"symbols_per_stream"`
}

// StreamConfig controls dialing and the reconnect backoff
type StreamConfig struct {
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	ReadTimeout          time.Duration `yaml:"read_timeout"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	ReconnectMultiplier  float64       `yaml:"reconnect_multiplier"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
}

type DisplayConfig struct {
	RefreshInterval time.Duration     `yaml:"refresh_interval"`
	Sort            string            `yaml:"sort"`
	Title           string            `yaml:"title"`
	Names           map[string]string `yaml:"names"` // symbol → name shown in the Pair column
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Binance: BinanceConfig{
			ApiUrl:           "https://api.binance.com",
			WebsocketUrl:     "wss://stream.binance.com:9443",
			Symbols:          []string{"BTCUSDT", "ETHUSDT", "BNBUSDT"},
			SymbolsPerStream: 10,
		},
		Stream: StreamConfig{
			HandshakeTimeout:     10 * time.Second,
			ReadTimeout:          60 * time.Second,
			ReconnectDelay:       2 * time.Second,
			ReconnectMaxDelay:    60 * time.Second,
			ReconnectMultiplier:  1.5,
			MaxReconnectAttempts: 0,
		},
		Display: DisplayConfig{
			RefreshInterval: time.Second,
			Sort:            SortByConfig,
			Title:           "Binance Live Prices",
			Names: map[string]string{
				"BTCUSDT": "Bitcoin",
				"ETHUSDT": "Ethereum",
				"BNBUSDT": "BNB",
			},
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// LoadConfig reads the YAML file at configPath on top of the defaults
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	// Read file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Parse YAML
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return config, nil
}

// LoadOrDefault is LoadConfig except that a missing file yields the defaults
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadConfig(configPath)
}

// ApplyEnv loads envFile into the environment (a missing file is ignored)
// and applies the TICKER_BOARD_* overrides.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if symbols, ok := os.LookupEnv(EnvSymbols); ok && strings.TrimSpace(symbols) != "" {
		c.Binance.Symbols = ParseSymbols(symbols)
	}
	if level, ok := os.LookupEnv(EnvLogLevel); ok && level != "" {
		c.Log.Level = level
	}
	if file, ok := os.LookupEnv(EnvLogFile); ok {
		c.Log.File = file
	}
	return nil
}

// Validate normalizes symbols and rejects unusable settings
func (c *Config) Validate() error {
	c.Binance.Symbols = NormalizeSymbols(c.Binance.Symbols)
	if len(c.Binance.Symbols) == 0 {
		return errors.New("at least one symbol must be configured")
	}

	if err := validateURL("binance.api_url", c.Binance.ApiUrl, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("binance.websocket_url", c.Binance.WebsocketUrl, "ws", "wss"); err != nil {
		return err
	}

	if c.Binance.SymbolsPerStream <= 0 {
		c.Binance.SymbolsPerStream = len(c.Binance.Symbols)
	}

	if c.Stream.HandshakeTimeout <= 0 {
		return fmt.Errorf("stream.handshake_timeout must be positive, got %s", c.Stream.HandshakeTimeout)
	}
	if c.Stream.ReconnectDelay <= 0 {
		return fmt.Errorf("stream.reconnect_delay must be positive, got %s", c.Stream.ReconnectDelay)
	}
	if c.Stream.ReconnectMaxDelay < c.Stream.ReconnectDelay {
		c.Stream.ReconnectMaxDelay = c.Stream.ReconnectDelay
	}
	if c.Stream.ReconnectMultiplier < 1 {
		return fmt.Errorf("stream.reconnect_multiplier must be >= 1, got %g", c.Stream.ReconnectMultiplier)
	}
	if c.Stream.MaxReconnectAttempts < 0 {
		return fmt.Errorf("stream.max_reconnect_attempts must be >= 0, got %d", c.Stream.MaxReconnectAttempts)
	}

	if c.Display.RefreshInterval <= 0 {
		return fmt.Errorf("display.refresh_interval must be positive, got %s", c.Display.RefreshInterval)
	}
	names := make(map[string]string, len(c.Display.Names))
	for symbol, name := range c.Display.Names {
		symbol = strings.TrimSpace(strings.ToUpper(symbol))
		if symbol == "" {
			return errors.New("display.names must not contain an empty symbol")
		}
		names[symbol] = strings.TrimSpace(name)
	}
	c.Display.Names = names

	switch c.Display.Sort {
	case "":
		c.Display.Sort = SortByConfig
	case SortByConfig, SortByPrice:
	default:
		return fmt.Errorf("display.sort must be %q or %q, got %q", SortByConfig, SortByPrice, c.Display.Sort)
	}

	return nil
}

func validateURL(key, raw string, schemes ...string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme && parsed.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be a %s URL, got %q", key, strings.Join(schemes, "/"), raw)
}

// ParseSymbols splits a comma-separated symbol list
func ParseSymbols(raw string) []string {
	return NormalizeSymbols(strings.Split(raw, ","))
}

// NormalizeSymbols trims, upper-cases and de-duplicates symbols keeping the first occurrence
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool)
	var cleanSymbols []string
	for _, symbol := range symbols {
		cleanSymbol := strings.TrimSpace(strings.ToUpper(symbol))
		if cleanSymbol == "" || seen[cleanSymbol] {
			continue
		}
		seen[cleanSymbol] = true
		cleanSymbols = append(cleanSymbols, cleanSymbol)
	}
	return cleanSymbols
}
