package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/animus-labs/tablefuel/internal/domain"
	"github.com/animus-labs/tablefuel/internal/platform/database"
	"github.com/animus-labs/tablefuel/internal/platform/env"
)

const (
	DefaultInsertPartitionGroupSize = 100
	DefaultReportPrefix             = "runs"
	DefaultMetricsJob               = "tablefuel"
)

// Config is one fuel: copy SourceDatabase.SourceTable into
// TargetDatabase.TargetTable.
type Config struct {
	SourceDatabase           string                   `yaml:"sourceDatabase"`
	SourceTable              string                   `yaml:"sourceTable"`
	TargetDatabase           string                   `yaml:"targetDatabase"`
	TargetTable              string                   `yaml:"targetTable"`
	TargetCompression        string                   `yaml:"targetCompression"`
	PartitionFilter          string                   `yaml:"partitionFilter"`
	PartitionColumns         []string                 `yaml:"partitionColumns"`
	InsertPartitionGroupSize int                      `yaml:"insertPartitionGroupSize"`
	EnablePartitionGrouping  bool                     `yaml:"enablePartitionGrouping"`
	GroupPartitionOverride   bool                     `yaml:"groupPartitionOverride"`
	PartitionGrouping        domain.PartitionGrouping `yaml:"partitionGrouping"`
	SessionSettings          map[string]string        `yaml:"sessionSettings"`
	ConfigQueries            []string                 `yaml:"configQueries"`
	PreFueling               PreFueling               `yaml:"preFueling"`
	Database                 Database                 `yaml:"database"`
	Report                   Report                   `yaml:"report"`
	Metrics                  Metrics                  `yaml:"metrics"`
}

type PreFueling struct {
	DropTarget bool `yaml:"dropTarget"`
}

type Database struct {
	Driver       string        `yaml:"driver"`
	URL          string        `yaml:"url"`
	PingTimeout  time.Duration `yaml:"pingTimeout"`
	MaxOpenConns int           `yaml:"maxOpenConns"`
}

type Report struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
}

type Metrics struct {
	PushgatewayURL string `yaml:"pushgatewayUrl"`
	Job            string `yaml:"job"`
}

// Load reads a YAML file and returns the normalized, validated config.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML, applies environment overrides, then normalizes and
// validates. Unknown keys are rejected.
func Parse(input []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(input))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Database.Driver = env.String("TABLEFUEL_DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = env.String("TABLEFUEL_DATABASE_URL", c.Database.URL)
	pingTimeout, err := env.Duration("TABLEFUEL_DATABASE_PING_TIMEOUT", c.Database.PingTimeout)
	if err != nil {
		return err
	}
	c.Database.PingTimeout = pingTimeout
	maxOpenConns, err := env.Int("TABLEFUEL_DATABASE_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	c.Database.MaxOpenConns = maxOpenConns

	enabled, err := env.Bool("TABLEFUEL_REPORT_ENABLED", c.Report.Enabled)
	if err != nil {
		return err
	}
	c.Report.Enabled = enabled
	c.Metrics.PushgatewayURL = env.String("TABLEFUEL_PUSHGATEWAY_URL", c.Metrics.PushgatewayURL)
	return nil
}

func (c *Config) normalize() error {
	c.SourceDatabase = strings.TrimSpace(c.SourceDatabase)
	c.SourceTable = strings.TrimSpace(c.SourceTable)
	c.TargetDatabase = strings.TrimSpace(c.TargetDatabase)
	c.TargetTable = strings.TrimSpace(c.TargetTable)
	c.TargetCompression = strings.ToLower(strings.TrimSpace(c.TargetCompression))
	c.PartitionFilter = strings.TrimSpace(c.PartitionFilter)

	columns := make([]string, 0, len(c.PartitionColumns))
	for _, column := range c.PartitionColumns {
		if column = strings.TrimSpace(column); column != "" {
			columns = append(columns, column)
		}
	}
	c.PartitionColumns = columns

	grouping, err := domain.ParsePartitionGrouping(string(c.PartitionGrouping))
	if err != nil {
		return err
	}
	if c.GroupPartitionOverride {
		c.EnablePartitionGrouping = true
	}
	switch {
	case !c.EnablePartitionGrouping:
		grouping = domain.GroupingNone
	case grouping == domain.GroupingNone:
		grouping = domain.GroupingStatic
	}
	c.PartitionGrouping = grouping

	if c.InsertPartitionGroupSize < 1 {
		c.InsertPartitionGroupSize = DefaultInsertPartitionGroupSize
	}

	defaults := database.DefaultConfig()
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = defaults.Driver
	}
	if strings.TrimSpace(c.Database.URL) == "" && c.Database.Driver == defaults.Driver {
		c.Database.URL = defaults.URL
	}
	if c.Database.PingTimeout <= 0 {
		c.Database.PingTimeout = defaults.PingTimeout
	}
	if c.Database.MaxOpenConns < 1 {
		c.Database.MaxOpenConns = defaults.MaxOpenConns
	}

	c.Report.Prefix = strings.Trim(strings.TrimSpace(c.Report.Prefix), "/")
	if c.Report.Prefix == "" {
		c.Report.Prefix = DefaultReportPrefix
	}
	c.Metrics.PushgatewayURL = strings.TrimSpace(c.Metrics.PushgatewayURL)
	if strings.TrimSpace(c.Metrics.Job) == "" {
		c.Metrics.Job = DefaultMetricsJob
	}
	return nil
}

func (c Config) Validate() error {
	if c.SourceTable == "" {
		return errors.New("sourceTable is required")
	}
	if c.TargetTable == "" {
		return errors.New("targetTable is required")
	}
	if strings.EqualFold(c.SourceDatabase, c.TargetDatabase) && strings.EqualFold(c.SourceTable, c.TargetTable) {
		return fmt.Errorf("source and target must differ: %s", qualified(c.SourceDatabase, c.SourceTable))
	}
	if c.InsertPartitionGroupSize < 1 {
		return errors.New("insertPartitionGroupSize must be >= 1")
	}
	for key := range c.SessionSettings {
		if strings.TrimSpace(key) == "" {
			return errors.New("sessionSettings keys must be non-empty")
		}
	}
	for i, query := range c.ConfigQueries {
		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("configQueries[%d] is blank", i)
		}
	}
	if err := c.DatabaseConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// DatabaseConfig fills the pool settings the file does not carry from
// database.DefaultConfig.
func (c Config) DatabaseConfig() database.Config {
	cfg := database.DefaultConfig()
	cfg.Driver = c.Database.Driver
	cfg.URL = c.Database.URL
	if c.Database.PingTimeout > 0 {
		cfg.PingTimeout = c.Database.PingTimeout
	}
	if c.Database.MaxOpenConns > 0 {
		cfg.MaxOpenConns = c.Database.MaxOpenConns
		if cfg.MaxIdleConns > cfg.MaxOpenConns {
			cfg.MaxIdleConns = cfg.MaxOpenConns
		}
	}
	return cfg
}

func (c Config) Source() string { return qualified(c.SourceDatabase, c.SourceTable) }

func (c Config) Target() string { return qualified(c.TargetDatabase, c.TargetTable) }

func qualified(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
