package tracebridge

type Config struct {
	CommonTags               []string `yaml:"common_tags"`
	Debug                    bool     `yaml:"debug"`
	EnableProfiling          bool     `yaml:"enable_profiling"`
	HTTPAddress              string   `yaml:"http_address"`
	LightstepAccessToken     string   `yaml:"lightstep_access_token"`
	LightstepCollectorHost   string   `yaml:"lightstep_collector_host"`
	LightstepMaximumSpans    int      `yaml:"lightstep_maximum_spans"`
	LightstepReconnectPeriod string   `yaml:"lightstep_reconnect_period"`
	SentryDsn                string   `yaml:"sentry_dsn"`
	ServiceName              string   `yaml:"service_name"`
	StatsAddress             string   `yaml:"stats_address"`
	TracerBackend            string   `yaml:"tracer_backend"`
}
