package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"aigen-index/internal/logging"

	"github.com/BurntSushi/toml"
)

// ConfigFileEnv names the environment variable that points at a TOML config
// file. The --config flag takes precedence over it.
const ConfigFileEnv = "CONFIG_FILE"

// DatabaseFileName is the SQLite file created inside DatabaseDir.
const DatabaseFileName = "index.db"

// Config holds all application configuration
type Config struct {
	DatabaseDir     string
	ScanRoots       []string
	ScanInterval    time.Duration
	PollInterval    time.Duration
	Port            string
	MetricsEnabled  bool
	ExtractWorkers  int
	VerifyDecode    bool
	SkipHidden      bool
	LogLevel        string
	LogHealthChecks bool

	// ConfigFile is the TOML file the configuration was read from, if any
	ConfigFile string

	// Derived paths
	DatabasePath string
}

// fileConfig mirrors Config as it appears in a TOML file. Pointer fields
// distinguish "absent" from the zero value so that absent keys keep their
// defaults.
type fileConfig struct {
	DatabaseDir     *string  `toml:"database_dir"`
	ScanRoots       []string `toml:"scan_roots"`
	ScanInterval    *string  `toml:"scan_interval"`
	PollInterval    *string  `toml:"poll_interval"`
	Port            *string  `toml:"port"`
	MetricsEnabled  *bool    `toml:"metrics_enabled"`
	ExtractWorkers  *int     `toml:"extract_workers"`
	VerifyDecode    *bool    `toml:"verify_decode"`
	SkipHidden      *bool    `toml:"skip_hidden"`
	LogLevel        *string  `toml:"log_level"`
	LogHealthChecks *bool    `toml:"log_health_checks"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		DatabaseDir:     "/database",
		ScanRoots:       []string{},
		ScanInterval:    30 * time.Minute,
		PollInterval:    30 * time.Second,
		Port:            "8080",
		MetricsEnabled:  true,
		VerifyDecode:    false,
		SkipHidden:      true,
		LogLevel:        "info",
		LogHealthChecks: true,
	}
}

// Load builds the configuration from defaults, then the TOML file at
// configFile (or $CONFIG_FILE when configFile is empty), then environment
// variables. It resolves paths but does not touch the filesystem beyond
// reading the config file.
func Load(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnv)
	}
	if configFile != "" {
		if err := cfg.applyFile(configFile); err != nil {
			return nil, err
		}
		cfg.ConfigFile = configFile
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if fc.DatabaseDir != nil {
		c.DatabaseDir = *fc.DatabaseDir
	}
	if fc.ScanRoots != nil {
		c.ScanRoots = fc.ScanRoots
	}
	if fc.ScanInterval != nil {
		interval, err := parseInterval(*fc.ScanInterval)
		if err != nil {
			return fmt.Errorf("config file %s: scan_interval: %w", path, err)
		}
		c.ScanInterval = interval
	}
	if fc.PollInterval != nil {
		interval, err := parseInterval(*fc.PollInterval)
		if err != nil {
			return fmt.Errorf("config file %s: poll_interval: %w", path, err)
		}
		c.PollInterval = interval
	}
	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.MetricsEnabled != nil {
		c.MetricsEnabled = *fc.MetricsEnabled
	}
	if fc.ExtractWorkers != nil {
		c.ExtractWorkers = *fc.ExtractWorkers
	}
	if fc.VerifyDecode != nil {
		c.VerifyDecode = *fc.VerifyDecode
	}
	if fc.SkipHidden != nil {
		c.SkipHidden = *fc.SkipHidden
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.LogHealthChecks != nil {
		c.LogHealthChecks = *fc.LogHealthChecks
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DatabaseDir = getEnv("DATABASE_DIR", c.DatabaseDir)
	if roots := os.Getenv("SCAN_ROOTS"); roots != "" {
		c.ScanRoots = splitRoots(roots)
	}
	if value := os.Getenv("SCAN_INTERVAL"); value != "" {
		interval, err := parseInterval(value)
		if err != nil {
			return fmt.Errorf("SCAN_INTERVAL: %w", err)
		}
		c.ScanInterval = interval
	}
	if value := os.Getenv("POLL_INTERVAL"); value != "" {
		interval, err := parseInterval(value)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.PollInterval = interval
	}
	c.Port = getEnv("PORT", c.Port)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	if value := os.Getenv("EXTRACT_WORKERS"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("EXTRACT_WORKERS: invalid worker count %q", value)
		}
		c.ExtractWorkers = n
	}
	c.VerifyDecode = getEnvBool("VERIFY_DECODE", c.VerifyDecode)
	c.SkipHidden = getEnvBool("SKIP_HIDDEN", c.SkipHidden)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", c.LogHealthChecks)
	return nil
}

func (c *Config) resolve() error {
	if c.ExtractWorkers < 0 {
		return fmt.Errorf("extract workers must not be negative, got %d", c.ExtractWorkers)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	databaseDir, err := filepath.Abs(c.DatabaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	c.DatabaseDir = databaseDir
	c.DatabasePath = filepath.Join(databaseDir, DatabaseFileName)

	roots := make([]string, 0, len(c.ScanRoots))
	for _, root := range c.ScanRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("failed to resolve scan root %q: %w", root, err)
		}
		roots = append(roots, abs)
	}
	c.ScanRoots = roots
	return nil
}

// parseInterval accepts a Go duration; "0" or "off" disables the timer.
func parseInterval(value string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "off", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("interval must not be negative")
	}
	return d, nil
}

func splitRoots(value string) []string {
	var roots []string
	for _, root := range filepath.SplitList(value) {
		if root = strings.TrimSpace(root); root != "" {
			roots = append(roots, root)
		}
	}
	return roots
}

// PrepareDatabaseDir creates the database directory if needed and checks
// that it is writable.
func (c *Config) PrepareDatabaseDir() error {
	if err := ensureDirectory(c.DatabaseDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(c.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")
	return nil
}

// LogConfig logs the effective configuration.
func LogConfig(c *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if c.ConfigFile != "" {
		logging.Info("  CONFIG_FILE:         %s", c.ConfigFile)
	}
	logging.Info("  DATABASE_DIR:        %s", c.DatabaseDir)
	logging.Info("  SCAN_ROOTS:          %s", strings.Join(c.ScanRoots, string(os.PathListSeparator)))
	logging.Info("  SCAN_INTERVAL:       %s", intervalString(c.ScanInterval))
	logging.Info("  POLL_INTERVAL:       %s", intervalString(c.PollInterval))
	logging.Info("  PORT:                %s", c.Port)
	logging.Info("  METRICS_ENABLED:     %v", c.MetricsEnabled)
	logging.Info("  EXTRACT_WORKERS:     %s", workersString(c.ExtractWorkers))
	logging.Info("  VERIFY_DECODE:       %v", c.VerifyDecode)
	logging.Info("  SKIP_HIDDEN:         %v", c.SkipHidden)
	logging.Info("  LOG_LEVEL:           %s", c.LogLevel)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", c.LogHealthChecks)

	for _, root := range c.ScanRoots {
		if err := checkScanRoot(root); err != nil {
			logging.Warn("  Scan root issue: %v", err)
		}
	}
}

func intervalString(d time.Duration) string {
	if d == 0 {
		return "off"
	}
	return d.String()
}

func workersString(n int) string {
	if n == 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

// checkScanRoot warns about roots that are missing; they are not created
// because they should be mounted.
func checkScanRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: path exists but is not a directory", root)
	}
	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(root); err == nil {
			logging.Debug("    %s: %d entries (top level)", root, len(entries))
		}
	}
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
