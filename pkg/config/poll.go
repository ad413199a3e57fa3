package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"report-intake/internal/report/domain"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
)

// PollConfig is the operator-edited JSON file, reloaded every cycle
type PollConfig struct {
	PollIntervalSeconds int              `mapstructure:"pollIntervalSeconds"`
	MaxEmailsPerRun     int              `mapstructure:"maxEmailsPerRun"`
	StateFile           string           `mapstructure:"stateFile"`
	// FailedStateFile defaults to "<stem>_failed.json" next to StateFile
	FailedStateFile     string           `mapstructure:"failedStateFile"`
	BatchSize           int              `mapstructure:"batchSize"`
	Parallelism         int              `mapstructure:"parallelism"`
	Accounts            []domain.Account `mapstructure:"accounts"`
}

// PollInterval returns the sleep between cycles
func (c *PollConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

const pollSchema = `{
  "type": "object",
  "required": ["accounts"],
  "properties": {
    "pollIntervalSeconds": {"type": "integer", "minimum": 1},
    "maxEmailsPerRun": {"type": "integer", "minimum": 1},
    "stateFile": {"type": "string", "minLength": 1},
    "failedStateFile": {"type": "string"},
    "batchSize": {"type": "integer", "minimum": 1},
    "parallelism": {"type": "integer", "minimum": 1},
    "accounts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["imapServer", "email", "password"],
        "properties": {
          "name": {"type": "string"},
          "imapServer": {"type": "string", "minLength": 1},
          "imapPort": {"type": "integer", "minimum": 1, "maximum": 65535},
          "email": {"type": "string", "minLength": 1},
          "password": {"type": "string"}
        }
      }
    }
  }
}`

var compiledPollSchema = jsonschema.MustCompileString("poll.json", pollSchema)

// LoadPoll reads, validates and defaults the poll config at path
func LoadPoll(path string) (*PollConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read poll config: %w", err)
	}
	return ParsePoll(data)
}

// ParsePoll validates raw JSON against the schema and decodes it
func ParsePoll(data []byte) (*PollConfig, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse poll config: %w", err)
	}
	if err := compiledPollSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("poll config does not match schema: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("pollIntervalSeconds", 30)
	v.SetDefault("maxEmailsPerRun", 50)
	v.SetDefault("stateFile", "state.json")
	v.SetDefault("batchSize", 20)
	v.SetDefault("parallelism", 5)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("read poll config: %w", err)
	}

	var cfg PollConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode poll config: %w", err)
	}
	for i := range cfg.Accounts {
		cfg.Accounts[i] = cfg.Accounts[i].Normalized()
	}
	return &cfg, nil
}
