package main

import (
	"flag"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/danielgomezrico/tracebridge"
)

var (
	configFile     = flag.String("f", "", "The config file to read for settings.")
	validateConfig = flag.Bool("validate-config", false, "Validate the config file is valid YAML with correct value types, then immediately exit.")
)

func main() {
	flag.Parse()

	if configFile == nil || *configFile == "" {
		logrus.Fatal("You must specify a config file")
	}

	conf, err := tracebridge.ReadConfig(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("Error reading config file")
	}

	if *validateConfig {
		os.Exit(0)
	}

	logger := logrus.StandardLogger()
	server, err := tracebridge.NewFromConfig(conf, logger)
	if err != nil {
		if conf.SentryDsn != "" {
			if initErr := sentry.Init(sentry.ClientOptions{
				Dsn: conf.SentryDsn,
			}); initErr != nil {
				logrus.WithError(initErr).Error("Error initializing Sentry client")
			}

			event := sentry.NewEvent()
			event.Message = err.Error()
			hostname, _ := os.Hostname()
			if hostname != "" {
				event.ServerName = hostname
			}

			sentry.CaptureEvent(event)
			sentry.Flush(tracebridge.SentryFlushTimeout)
		}

		logrus.WithError(err).Fatal("Could not initialize server")
	}

	defer func() {
		tracebridge.ConsumePanic(server.Hostname, recover())
	}()

	server.HTTPServe()
}
