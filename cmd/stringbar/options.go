package main

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/lc/stringbar/internal/config"
	"github.com/lc/stringbar/internal/sink"
)

// options are read from the environment first; explicit flags override them.
type options struct {
	ConfigPath string        `env:"STRINGBAR_CONFIG"   env-default:""`
	Sink       string        `env:"STRINGBAR_SINK"     env-default:"xsetroot -name"`
	Stdout     bool          `env:"STRINGBAR_STDOUT"   env-default:"false"`
	Debounce   time.Duration `env:"STRINGBAR_DEBOUNCE" env-default:"0s"`
}

func loadOptions() (*options, error) {
	var opts options
	if err := cleanenv.ReadEnv(&opts); err != nil {
		return nil, fmt.Errorf("failed to read options from environment: %w", err)
	}
	return &opts, nil
}

// configPath returns the configuration file in use.
func (o *options) configPath() (string, error) {
	if o.ConfigPath != "" {
		return o.ConfigPath, nil
	}
	return config.DefaultPath()
}

// newSink builds the sink the status line is published to.
func (o *options) newSink(stdout func() sink.Sink) (sink.Sink, error) {
	if o.Stdout {
		return stdout(), nil
	}
	c, err := sink.NewCommand(o.Sink)
	if err != nil {
		return nil, fmt.Errorf("invalid --sink: %w", err)
	}
	return c, nil
}
