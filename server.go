// Package tracebridge wires the span-handle bridge to its runtime
// surroundings: configuration, the tracer backend, an HTTP call channel,
// statsd metrics and Sentry crash reporting. The bridge core itself lives
// in the bridge package.
package tracebridge

import (
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/getsentry/sentry-go"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/bind"
	"github.com/zenazn/goji/graceful"

	"github.com/danielgomezrico/tracebridge/bridge"
)

const defaultLinkValue = "dirty"

// VERSION stores the version of the bridge. It is set by the build process.
var VERSION = defaultLinkValue

// BUILD_DATE stores the build date. It is set by the build process.
var BUILD_DATE = defaultLinkValue

var profileStartOnce = sync.Once{}

// Server hosts the bridge dispatcher behind its HTTP call channel.
type Server struct {
	Hostname   string
	HTTPAddr   string
	Tracer     opentracing.Tracer
	Dispatcher *bridge.Dispatcher
	Statsd     bridge.Statsd

	logger          *logrus.Logger
	enableProfiling bool

	// callMtx serializes dispatcher calls: the boundary contract is that
	// one call is fully processed before the next is dispatched.
	callMtx sync.Mutex
}

// NewFromConfig creates a new bridge server from a configuration
// specification.
func NewFromConfig(conf Config, logger *logrus.Logger) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if conf.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	hostname, _ := os.Hostname()

	if conf.SentryDsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:        conf.SentryDsn,
			ServerName: hostname,
		})
		if err != nil {
			logger.WithError(err).Error("Error initializing Sentry client")
		} else {
			logger.AddHook(sentryHook{
				hostname: hostname,
				lv: []logrus.Level{
					logrus.ErrorLevel,
					logrus.FatalLevel,
					logrus.PanicLevel,
				},
			})
		}
	}

	stats, err := statsd.New(conf.StatsAddress, statsd.WithoutTelemetry(), statsd.WithMaxMessagesPerPayload(4096))
	if err != nil {
		return nil, errors.Wrap(err, "creating statsd client")
	}
	stats.Namespace = "tracebridge."
	stats.Tags = append(stats.Tags, conf.CommonTags...)

	tracer, err := NewTracer(conf, logger)
	if err != nil {
		return nil, errors.Wrap(err, "initializing tracer backend")
	}
	opentracing.SetGlobalTracer(tracer)

	ret := &Server{
		Hostname:        hostname,
		HTTPAddr:        conf.HTTPAddress,
		Tracer:          tracer,
		Dispatcher:      bridge.NewDispatcher(tracer, stats, logger),
		Statsd:          bridge.EnsureStatsd(stats),
		logger:          logger,
		enableProfiling: conf.EnableProfiling,
	}

	logger.WithFields(logrus.Fields{
		"hostname":       hostname,
		"http_address":   conf.HTTPAddress,
		"tracer_backend": conf.TracerBackend,
		"version":        VERSION,
	}).Info("Starting bridge server")

	return ret, nil
}

// call runs one dispatcher call under the boundary's one-at-a-time
// discipline.
func (s *Server) call(method string, args bridge.Arguments) (interface{}, error) {
	s.callMtx.Lock()
	defer s.callMtx.Unlock()
	return s.Dispatcher.Call(method, args)
}

// HTTPServe starts the HTTP server and listens perpetually until it
// encounters an unrecoverable error.
func (s *Server) HTTPServe() {
	var prf interface {
		Stop()
	}

	// We want to make sure the profile is stopped
	// exactly once (and only once), even if the
	// shutdown pre-hook does not run (which it may not)
	profileStopOnce := sync.Once{}

	if s.enableProfiling {
		profileStartOnce.Do(func() {
			prf = profile.Start()
		})

		defer func() {
			profileStopOnce.Do(prf.Stop)
		}()
	}
	httpSocket := bind.Socket(s.HTTPAddr)
	graceful.Timeout(10 * time.Second)
	graceful.PreHook(func() {

		if prf != nil {
			profileStopOnce.Do(prf.Stop)
		}

		s.logger.Info("Terminating HTTP listener")
	})

	// Ensure that the server responds to SIGUSR2 even
	// when *not* running under einhorn.
	graceful.AddSignal(syscall.SIGUSR2, syscall.SIGHUP)
	graceful.HandleSignals()
	gracefulSocket := graceful.WrapListener(httpSocket)
	s.logger.WithField("address", s.HTTPAddr).Info("HTTP server listening")
	bind.Ready()

	if err := http.Serve(gracefulSocket, s.Handler()); err != nil {
		s.logger.WithError(err).Error("HTTP server shut down due to error")
	}
	s.logger.Info("Stopped HTTP server")

	graceful.Shutdown()
}

// Shutdown tears down the server gracefully.
func (s *Server) Shutdown() {
	s.logger.Info("Shutting down server gracefully")
	graceful.Shutdown()
}
