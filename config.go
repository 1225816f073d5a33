package rdt

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config carries the tunables shared by the protocol engines. Durations are
// expressed in milliseconds so a config file stays plain integers.
type Config struct {
	RetransmissionTimeoutMs int           `yaml:"retransmission_timeout_ms"`
	PollIntervalMs          int           `yaml:"poll_interval_ms"`
	WindowSize              uint32        `yaml:"window_size"`
	MaxSegmentSize          int           `yaml:"max_segment_size"`
	RetryBudget             int           `yaml:"retry_budget"`
	Channel                 ChannelConfig `yaml:"channel"`
}

// ChannelConfig parameterizes the simulated unreliable channel.
type ChannelConfig struct {
	LossRate    float64 `yaml:"loss_rate"`
	CorruptRate float64 `yaml:"corrupt_rate"`
	MinDelayMs  int     `yaml:"min_delay_ms"`
	MaxDelayMs  int     `yaml:"max_delay_ms"`
}

func DefaultConfig() *Config {
	return &Config{
		RetransmissionTimeoutMs: int(defaultRetransmissionTimeout / time.Millisecond),
		PollIntervalMs:          int(defaultPollInterval / time.Millisecond),
		WindowSize:              defaultWindowSize,
		MaxSegmentSize:          defaultMaxSegmentSize,
	}
}

// ReadConfig loads a yaml config file on top of the defaults.
func ReadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.RetransmissionTimeoutMs <= 0 {
		return errors.New("retransmission_timeout_ms must be positive")
	}
	if c.PollIntervalMs <= 0 {
		return errors.New("poll_interval_ms must be positive")
	}
	if c.WindowSize == 0 {
		return errors.New("window_size must be positive")
	}
	if c.Channel.LossRate < 0 || c.Channel.LossRate > 1 {
		return errors.New("channel loss_rate must be within [0, 1]")
	}
	if c.Channel.CorruptRate < 0 || c.Channel.CorruptRate > 1 {
		return errors.New("channel corrupt_rate must be within [0, 1]")
	}
	return nil
}

func (c *Config) RetransmissionTimeout() time.Duration {
	return time.Duration(c.RetransmissionTimeoutMs) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// NewChannel builds the channel the config describes: a DirectChannel when
// no impairment is configured, the simulator otherwise.
func (c *Config) NewChannel() Channel {
	ch := c.Channel
	if ch.LossRate == 0 && ch.CorruptRate == 0 && ch.MaxDelayMs == 0 {
		return DirectChannel{}
	}
	return NewUnreliableChannel(
		ch.LossRate,
		ch.CorruptRate,
		time.Duration(ch.MinDelayMs)*time.Millisecond,
		time.Duration(ch.MaxDelayMs)*time.Millisecond,
	)
}
