package confs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	// DriverMemory keeps data in process memory; nothing survives a restart.
	DriverMemory = "memory"
)

// Config holds everything the process needs at startup. It is loaded once in
// main and handed to the components that need it.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `yaml:"debug"`
	Addr    string `yaml:"addr"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	URL          string `yaml:"url"`
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslmode"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:    "user-server",
			Version: "0.0.1",
			Addr:    "0.0.0.0:3536",
		},
		Database: DatabaseConfig{
			Driver:       DriverPostgres,
			MaxIdleConns: 10,
			MaxOpenConns: 100,
		},
	}
}

// Load loads .env if present, then the optional YAML file at path, then
// applies environment overrides. A missing .env or YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("could not load .env: %v", err)
		}
	}

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"APP_NAME":    &cfg.App.Name,
		"APP_VERSION": &cfg.App.Version,
		"APP_ADDR":    &cfg.App.Addr,
		"DB_DRIVER":   &cfg.Database.Driver,
		"DB_URL":      &cfg.Database.URL,
		"DB_HOST":     &cfg.Database.Host,
		"DB_PORT":     &cfg.Database.Port,
		"DB_USER":     &cfg.Database.User,
		"DB_PASSWORD": &cfg.Database.Password,
		"DB_NAME":     &cfg.Database.Name,
		"DB_SSLMODE":  &cfg.Database.SSLMode,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("APP_DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid APP_DEBUG %q: %w", v, err)
		}
		cfg.App.Debug = b
	}

	ints := map[string]*int{
		"DB_MAX_IDLE_CONNS": &cfg.Database.MaxIdleConns,
		"DB_MAX_OPEN_CONNS": &cfg.Database.MaxOpenConns,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks that the driver is supported and that either a URL or the
// full set of connection parameters is present.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL:
	case DriverMemory:
		return nil
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.URL != "" {
		return nil
	}
	if c.Host == "" || c.Port == "" || c.User == "" || c.Password == "" || c.Name == "" {
		return fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}
	return nil
}

// DSN builds the driver specific connection string.
func (c *DatabaseConfig) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.Driver == DriverMemory {
		return "", fmt.Errorf("driver %q has no DSN", c.Driver)
	}
	if c.Driver == DriverMySQL {
		return c.mysqlDSN()
	}
	return c.postgresDSN(), nil
}

func (c *DatabaseConfig) postgresDSN() string {
	if c.URL != "" {
		dsn := c.URL
		// hosted databases expect TLS unless told otherwise
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
		if c.Host == "localhost" || c.Host == "127.0.0.1" {
			sslMode = "disable"
		}
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, sslMode)
}

func (c *DatabaseConfig) mysqlDSN() (string, error) {
	var mc *mysql.Config
	if c.URL != "" {
		parsed, err := mysql.ParseDSN(c.URL)
		if err != nil {
			return "", fmt.Errorf("invalid DB_URL: %w", err)
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.Host + ":" + c.Port
		mc.DBName = c.Name
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
	}
	// report matched rows, so an update that changes nothing is not mistaken for a missing row
	mc.ClientFoundRows = true
	return mc.FormatDSN(), nil
}
