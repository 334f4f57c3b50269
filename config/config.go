package config

import (
	"fmt"

	"github.com/skillsenselab/drivescribe/auth"
	"github.com/skillsenselab/drivescribe/feed"
	"github.com/skillsenselab/drivescribe/graph"
	"github.com/skillsenselab/drivescribe/observability"
	"github.com/skillsenselab/drivescribe/pipeline"
	"github.com/skillsenselab/drivescribe/redis"
	"github.com/skillsenselab/drivescribe/server"
	"github.com/skillsenselab/drivescribe/transcription/cognitive"
	"github.com/skillsenselab/drivescribe/webhook"
)

// Config is the full drivescribe service configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server     server.Config                `yaml:"server" mapstructure:"server"`
	Redis      redis.Config                 `yaml:"redis" mapstructure:"redis"`
	Graph      graph.Config                 `yaml:"graph" mapstructure:"graph"`
	GraphAuth  auth.ClientCredentialsConfig `yaml:"graph_auth" mapstructure:"graph_auth"`
	Speech     cognitive.Config             `yaml:"speech" mapstructure:"speech"`
	SpeechAuth auth.ClientCredentialsConfig `yaml:"speech_auth" mapstructure:"speech_auth"`
	Walker     feed.Config                  `yaml:"walker" mapstructure:"walker"`
	Pipeline   pipeline.Config              `yaml:"pipeline" mapstructure:"pipeline"`
	Webhook    webhook.Config               `yaml:"webhook" mapstructure:"webhook"`
	Metrics    observability.MeterConfig    `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults applies default values to the whole configuration tree.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Graph.ApplyDefaults()
	c.GraphAuth.ApplyDefaults()
	c.Speech.ApplyDefaults()
	c.SpeechAuth.ApplyDefaults()
	c.Walker.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Metrics.ApplyDefaults()

	c.Metrics.ServiceName = c.Name
	c.Metrics.ServiceVersion = c.Version
	c.Metrics.Environment = c.Environment
}

// Validate validates the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("config.redis: %w", err)
	}
	if err := c.Graph.Validate(); err != nil {
		return fmt.Errorf("config.graph: %w", err)
	}
	if err := c.GraphAuth.Validate(); err != nil {
		return fmt.Errorf("config.graph_auth: %w", err)
	}
	if err := c.Speech.Validate(); err != nil {
		return fmt.Errorf("config.speech: %w", err)
	}
	if err := c.SpeechAuth.Validate(); err != nil {
		return fmt.Errorf("config.speech_auth: %w", err)
	}
	if err := c.Walker.Validate(); err != nil {
		return fmt.Errorf("config.walker: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("config.pipeline: %w", err)
	}
	return nil
}
