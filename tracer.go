package tracebridge

import (
	"net/url"
	"strconv"
	"time"

	lightstep "github.com/lightstep/lightstep-tracer-go"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const lightstepDefaultPort = 8080
const lightstepDefaultInterval = 5 * time.Minute

// NewTracer constructs the native tracer capability the bridge dispatches
// into, per the configured backend. The "none" backend yields a noop
// tracer; the bridge still enforces handle lifecycle against it, spans
// just go nowhere.
func NewTracer(conf Config, log *logrus.Logger) (opentracing.Tracer, error) {
	switch conf.TracerBackend {
	case TracerBackendLightstep:
		return newLightstepTracer(conf, log)
	case TracerBackendNone, "":
		return opentracing.NoopTracer{}, nil
	default:
		return nil, errors.Errorf("unknown tracer backend %q", conf.TracerBackend)
	}
}

func newLightstepTracer(conf Config, log *logrus.Logger) (opentracing.Tracer, error) {
	host, err := url.Parse(conf.LightstepCollectorHost)
	if err != nil {
		log.WithError(err).WithField(
			"host", conf.LightstepCollectorHost,
		).Error("Error parsing LightStep collector URL")
		return nil, err
	}

	port, err := strconv.Atoi(host.Port())
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"port":         port,
			"default_port": lightstepDefaultPort,
		}).Warn("Error parsing LightStep port, using default")
		port = lightstepDefaultPort
	}

	reconPeriod := lightstepDefaultInterval
	if conf.LightstepReconnectPeriod != "" {
		reconPeriod, err = time.ParseDuration(conf.LightstepReconnectPeriod)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"interval":         conf.LightstepReconnectPeriod,
				"default_interval": lightstepDefaultInterval,
			}).Warn("Failed to parse reconnect duration, using default.")
			reconPeriod = lightstepDefaultInterval
		}
	}

	log.WithFields(logrus.Fields{
		"Host": host.Hostname(),
		"Port": port,
	}).Info("Dialing lightstep host")

	return lightstep.NewTracer(lightstep.Options{
		AccessToken:     conf.LightstepAccessToken,
		ReconnectPeriod: reconPeriod,
		Collector: lightstep.Endpoint{
			Host:      host.Hostname(),
			Port:      port,
			Plaintext: true,
		},
		UseGRPC:          true,
		MaxBufferedSpans: conf.LightstepMaximumSpans,
		Tags: opentracing.Tags{
			lightstep.ComponentNameKey: conf.ServiceName,
		},
	}), nil
}
