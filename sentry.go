package tracebridge

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// SentryFlushTimeout is how long we block to drain Sentry's transport
// before terminating or completing a capture.
const SentryFlushTimeout = 10 * time.Second

// ConsumePanic reports a panic to Sentry, then repanics to ensure the
// program terminates. Call inside a deferred recover, eg
//
//	defer func() {
//		ConsumePanic(hostname, recover())
//	}()
func ConsumePanic(hostname string, err interface{}) {
	if err == nil {
		return
	}

	event := sentry.NewEvent()
	event.Level = sentry.LevelFatal
	event.ServerName = hostname

	switch e := err.(type) {
	case error:
		event.Message = e.Error()
	case fmt.Stringer:
		event.Message = e.String()
	default:
		event.Message = fmt.Sprintf("%#v", e)
	}

	sentry.CaptureEvent(event)
	// we don't want the program to terminate before reporting to sentry
	sentry.Flush(SentryFlushTimeout)

	panic(err)
}

// reportPanic captures a recovered panic without repanicking, for call
// handlers that must never abort the host process.
func reportPanic(hostname string, err interface{}) {
	if err == nil {
		return
	}

	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.ServerName = hostname

	switch e := err.(type) {
	case error:
		event.Message = e.Error()
	case fmt.Stringer:
		event.Message = e.String()
	default:
		event.Message = fmt.Sprintf("%#v", e)
	}

	sentry.CaptureEvent(event)
}

// logrus hook to send error/fatal/panic messages to sentry
type sentryHook struct {
	hostname string
	lv       []logrus.Level
}

var _ logrus.Hook = sentryHook{}

func (s sentryHook) Levels() []logrus.Level {
	return s.lv
}

func (s sentryHook) Fire(e *logrus.Entry) error {
	event := sentry.NewEvent()
	event.ServerName = s.hostname

	if err, ok := e.Data[logrus.ErrorKey].(error); ok {
		event.Message = err.Error()
	} else {
		event.Message = e.Message
	}

	event.Extra = make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if k == logrus.ErrorKey {
			continue
		}
		event.Extra[k] = v
	}

	switch e.Level {
	case logrus.FatalLevel, logrus.PanicLevel:
		event.Level = sentry.LevelFatal
	default:
		event.Level = sentry.LevelError
	}

	sentry.CaptureEvent(event)
	if e.Level == logrus.FatalLevel || e.Level == logrus.PanicLevel {
		// to ensure we don't terminate before the event is sent
		sentry.Flush(SentryFlushTimeout)
	}
	return nil
}
