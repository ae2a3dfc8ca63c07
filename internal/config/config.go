// Package config binds the TOML configuration file (spec.md §6) to a
// typed Config tree and validates it before the daemon starts.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Input holds the recognized [input] options.
type Input struct {
	Type    string `toml:"type"`
	Listen  string `toml:"listen"`
	Timeout int    `toml:"timeout"`
	Format  string `toml:"format"`
	Framing string `toml:"framing"`

	QueueSize int `toml:"queuesize"`

	TLSCert       string `toml:"tls_cert"`
	TLSKey        string `toml:"tls_key"`
	TLSCAFile     string `toml:"tls_ca_file"`
	TLSVerifyPeer bool   `toml:"tls_verify_peer"`
	TLSCompress   bool   `toml:"tls_compression"`
	TLSMethod     string `toml:"tls_method"`
	TLSCiphers    string `toml:"tls_ciphers"`

	RedisConnect  string `toml:"redis_connect"`
	RedisQueueKey string `toml:"redis_queue_key"`
	RedisThreads  int    `toml:"redis_threads"`

	LTSVSchema   map[string]string `toml:"ltsv_schema"`
	LTSVSuffixes map[string]string `toml:"ltsv_suffixes"`
}

// Output holds the recognized [output] options.
type Output struct {
	Type   string `toml:"type"`
	Format string `toml:"format"`

	KafkaBrokers  []string `toml:"kafka_brokers"`
	KafkaTopic    string   `toml:"kafka_topic"`
	KafkaThreads  int      `toml:"kafka_threads"`
	KafkaCoalesce int      `toml:"kafka_coalesce"`
	KafkaTimeout  int      `toml:"kafka_timeout"` // milliseconds
	KafkaAcks     string   `toml:"kafka_acks"`

	FilePath string `toml:"file_path"`

	NATSURL     string `toml:"nats_url"`
	NATSSubject string `toml:"nats_subject"`

	TLSAddr string `toml:"tls_addr"`

	GELFExtra map[string]string `toml:"gelf_extra"`
}

// Config is the full decoded configuration document.
type Config struct {
	Input  Input  `toml:"input"`
	Output Output `toml:"output"`
}

var (
	validInputTypes   = map[string]bool{"tcp": true, "tls": true, "tls_co": true, "udp": true, "redis": true, "stdin": true}
	validFormats      = map[string]bool{"rfc5424": true, "gelf": true, "ltsv": true, "capnp": true}
	validFramings     = map[string]bool{"line": true, "nul": true, "syslen": true, "capnp": true}
	validOutputTypes  = map[string]bool{"kafka": true, "debug": true, "file": true, "nats": true, "tls": true}
	validKafkaAcks    = map[string]bool{"0": true, "1": true, "all": true}
)

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	applyDefaults(&cfg)
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Input.Listen = ":6514"
	cfg.Input.Framing = "line"
	cfg.Input.QueueSize = 1000
	cfg.Output.KafkaAcks = "1"
}

// Validate enforces the configuration-error class from spec.md §7:
// these checks fail fast at startup with a non-zero exit rather than
// surfacing as a runtime error later.
func (c *Config) Validate() error {
	if !validInputTypes[c.Input.Type] {
		return fmt.Errorf("config: input.type %q is not one of tcp, tls, tls_co, udp, redis, stdin", c.Input.Type)
	}
	if !validFormats[c.Input.Format] {
		return fmt.Errorf("config: input.format %q is not one of rfc5424, gelf, ltsv, capnp", c.Input.Format)
	}
	if c.Input.Type == "tcp" || c.Input.Type == "tls" || c.Input.Type == "tls_co" || c.Input.Type == "stdin" {
		if !validFramings[c.Input.Framing] {
			return fmt.Errorf("config: input.framing %q is not one of line, nul, syslen, capnp", c.Input.Framing)
		}
	}
	if c.Input.QueueSize <= 0 {
		return fmt.Errorf("config: input.queuesize must be > 0, got %d", c.Input.QueueSize)
	}
	if c.Input.Type == "tls" || c.Input.Type == "tls_co" {
		if c.Input.TLSCert == "" || c.Input.TLSKey == "" {
			return fmt.Errorf("config: input.type %q requires tls_cert and tls_key", c.Input.Type)
		}
	}
	if c.Input.Type == "redis" {
		if c.Input.RedisConnect == "" || c.Input.RedisQueueKey == "" {
			return fmt.Errorf("config: input.type redis requires redis_connect and redis_queue_key")
		}
		if c.Input.RedisThreads <= 0 {
			c.Input.RedisThreads = 1
		}
	}

	if !validOutputTypes[c.Output.Type] {
		return fmt.Errorf("config: output.type %q is not one of kafka, debug, file, nats, tls", c.Output.Type)
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("config: output.format %q is not one of gelf, capnp, rfc5424, ltsv", c.Output.Format)
	}
	if c.Output.Type == "kafka" {
		if len(c.Output.KafkaBrokers) == 0 || c.Output.KafkaTopic == "" {
			return fmt.Errorf("config: output.type kafka requires kafka_brokers and kafka_topic")
		}
		if !validKafkaAcks[c.Output.KafkaAcks] {
			return fmt.Errorf("config: output.kafka_acks %q is not one of 0, 1, all", c.Output.KafkaAcks)
		}
		if c.Output.KafkaCoalesce <= 0 {
			c.Output.KafkaCoalesce = 1
		}
		if c.Output.KafkaTimeout <= 0 {
			c.Output.KafkaTimeout = 5000
		}
		if c.Output.KafkaThreads <= 0 {
			c.Output.KafkaThreads = 1
		}
	}
	if c.Output.Type == "file" && c.Output.FilePath == "" {
		return fmt.Errorf("config: output.type file requires file_path")
	}
	if c.Output.Type == "nats" && (c.Output.NATSURL == "" || c.Output.NATSSubject == "") {
		return fmt.Errorf("config: output.type nats requires nats_url and nats_subject")
	}
	if c.Output.Type == "tls" && c.Output.TLSAddr == "" {
		return fmt.Errorf("config: output.type tls requires tls_addr")
	}
	return nil
}
