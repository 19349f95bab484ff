// Package config provides configuration helpers for go-robomaster:
// environment lookups, optional .env loading, and an optional YAML file
// whose unset fields take built-in defaults. LoadFile reads only the file;
// it does not consult the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults for host-side tuning knobs.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultQueueSize        = 16
	DefaultGracefulDeadline = 5 * time.Second
)

// Config mirrors the optional YAML configuration file.
type Config struct {
	RobotIP          string        `yaml:"robot_ip"`
	Timeout          time.Duration `yaml:"timeout"`
	QueueSize        int           `yaml:"queue_size"`
	GracefulDeadline time.Duration `yaml:"graceful_deadline"`
}

// UnmarshalYAML accepts Go duration strings ("10s", "500ms") for the
// duration fields, which yaml does not decode natively.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		RobotIP          string `yaml:"robot_ip"`
		Timeout          string `yaml:"timeout"`
		QueueSize        int    `yaml:"queue_size"`
		GracefulDeadline string `yaml:"graceful_deadline"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.RobotIP = raw.RobotIP
	c.QueueSize = raw.QueueSize
	for _, d := range []struct {
		src string
		dst *time.Duration
	}{
		{raw.Timeout, &c.Timeout},
		{raw.GracefulDeadline, &c.GracefulDeadline},
	} {
		if d.src == "" {
			continue
		}
		v, err := time.ParseDuration(d.src)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.src, err)
		}
		*d.dst = v
	}
	return nil
}

// LoadDotEnv loads a .env file from the working directory if present.
// Already-set environment variables are not overridden.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// LoadFile reads a YAML config file and fills unset fields with defaults.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a Config with every field at its built-in default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.GracefulDeadline <= 0 {
		c.GracefulDeadline = DefaultGracefulDeadline
	}
}

// RobotIP returns the robot IP from ROBOT_IP env var.
// Falls back to the provided default if not set.
func RobotIP(defaultIP string) string {
	if ip := os.Getenv("ROBOT_IP"); ip != "" {
		return ip
	}
	return defaultIP
}

// RobotIPRequired returns the robot IP from ROBOT_IP env var.
// Exits if not set.
func RobotIPRequired() string {
	ip := os.Getenv("ROBOT_IP")
	if ip == "" {
		fmt.Fprintln(os.Stderr, "Error: ROBOT_IP environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: ROBOT_IP=192.168.42.2 ...")
		os.Exit(1)
	}
	return ip
}
