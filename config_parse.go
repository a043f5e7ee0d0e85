package tracebridge

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	defaultHTTPAddress  = "127.0.0.1:8127"
	defaultStatsAddress = "127.0.0.1:8125"
	defaultServiceName  = "tracebridge"
)

// Tracer backends the bootstrap knows how to construct.
const (
	TracerBackendNone      = "none"
	TracerBackendLightstep = "lightstep"
)

// ReadConfig unmarshals the config file and slurps in its data.
func ReadConfig(path string) (c Config, err error) {
	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()
	return readConfig(f)
}

func readConfig(r io.Reader) (c Config, err error) {
	// The YAML package does not support reader inputs.
	bts, err := ioutil.ReadAll(r)
	if err != nil {
		return
	}
	err = yaml.Unmarshal(bts, &c)
	if err != nil {
		return
	}

	err = envconfig.Process("tracebridge", &c)
	if err != nil {
		return
	}

	c.applyDefaults()
	return c, c.validate()
}

func (c *Config) applyDefaults() {
	if c.HTTPAddress == "" {
		c.HTTPAddress = defaultHTTPAddress
	}
	if c.StatsAddress == "" {
		c.StatsAddress = defaultStatsAddress
	}
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.TracerBackend == "" {
		c.TracerBackend = TracerBackendNone
	}
}

func (c *Config) validate() error {
	switch c.TracerBackend {
	case TracerBackendNone, TracerBackendLightstep:
	default:
		return errors.Errorf("unknown tracer backend %q", c.TracerBackend)
	}
	if c.TracerBackend == TracerBackendLightstep && c.LightstepCollectorHost == "" {
		return errors.New("lightstep tracer backend requires lightstep_collector_host")
	}
	return nil
}
