// Package config loads table rules and service settings from an HCL file.
package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blackjackev/blackjack"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "BJEV_CONFIG"

// file mirrors the HCL layout. Every attribute is optional; unset values fall
// back to Default.
type file struct {
	Rules  *rulesBlock  `hcl:"rules,block"`
	Server *serverBlock `hcl:"server,block"`
}

type rulesBlock struct {
	DealerStandsSoft17 *bool   `hcl:"dealer_stands_soft_17,optional"`
	Decks              *int    `hcl:"decks,optional"`
	Insurance          *bool   `hcl:"insurance,optional"`
	DealerPeeks        *bool   `hcl:"dealer_peeks,optional"`
	DoubleOn           *string `hcl:"double_on,optional"`
	DoubleAfterSplit   *bool   `hcl:"double_after_split,optional"`
	MaxSplits          *int    `hcl:"max_splits,optional"`
	ResplitAces        *bool   `hcl:"resplit_aces,optional"`
	HitSplitAces       *bool   `hcl:"hit_split_aces,optional"`
}

type serverBlock struct {
	Address  string `hcl:"address,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// ServerSettings configures the evaluation service.
type ServerSettings struct {
	Address  string
	LogLevel string
}

// Config is the resolved configuration.
type Config struct {
	Rules  blackjack.Rules
	Server ServerSettings
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Rules: blackjack.DefaultRules(),
		Server: ServerSettings{
			Address:  ":8080",
			LogLevel: "info",
		},
	}
}

// Load reads filename. A missing file yields Default.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source, applies defaults and validates the result.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	diags = gohcl.DecodeBody(f.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	if raw.Rules != nil {
		if err := raw.Rules.apply(&cfg.Rules); err != nil {
			return nil, err
		}
	}
	if raw.Server != nil {
		if raw.Server.Address != "" {
			cfg.Server.Address = raw.Server.Address
		}
		if raw.Server.LogLevel != "" {
			cfg.Server.LogLevel = raw.Server.LogLevel
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b *rulesBlock) apply(r *blackjack.Rules) error {
	setBool(&r.DealerStandsSoft17, b.DealerStandsSoft17)
	setBool(&r.InsuranceOffered, b.Insurance)
	setBool(&r.DealerPeeks, b.DealerPeeks)
	setBool(&r.DoubleAfterSplit, b.DoubleAfterSplit)
	setBool(&r.ResplitAces, b.ResplitAces)
	setBool(&r.HitSplitAces, b.HitSplitAces)
	if b.Decks != nil {
		r.Decks = *b.Decks
	}
	if b.MaxSplits != nil {
		r.MaxSplits = *b.MaxSplits
	}
	if b.DoubleOn != nil {
		rule, err := blackjack.ParseDoubleRule(*b.DoubleOn)
		if err != nil {
			return fmt.Errorf("rules.double_on: %w", err)
		}
		r.DoubleOn = rule
	}
	return nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}
	return nil
}

// LogLevel returns the parsed server log level.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
