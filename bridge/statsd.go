package bridge

// Statsd represents the statsd client functions the bridge reports
// through. The concrete implementation is a DataDog statsd client, but
// tests and tracer-less setups can pass nil and get a no-op client.
type Statsd interface {
	Count(name string, value int64, tags []string, rate float64) error
	Incr(name string, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
}

// EnsureStatsd takes a statsd client and wraps it in such a way that it is
// safe to store in a struct if it should be nil. Otherwise returns the
// client unchanged.
func EnsureStatsd(cl Statsd) Statsd {
	if cl == nil {
		return nullStatsd{}
	}
	return cl
}

type nullStatsd struct{}

var _ Statsd = nullStatsd{}

func (nullStatsd) Count(name string, value int64, tags []string, rate float64) error {
	return nil
}

func (nullStatsd) Incr(name string, tags []string, rate float64) error {
	return nil
}

func (nullStatsd) Gauge(name string, value float64, tags []string, rate float64) error {
	return nil
}
