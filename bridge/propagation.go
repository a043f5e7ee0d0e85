package bridge

import (
	opentracing "github.com/opentracing/opentracing-go"
)

// headersCarrier adapts a plain header map to the opentracing text-map
// carrier interfaces, so a span context can be injected straight into the
// map that goes back over the boundary.
type headersCarrier map[string]string

var _ opentracing.TextMapWriter = headersCarrier{}
var _ opentracing.TextMapReader = headersCarrier{}

func (c headersCarrier) Set(k, v string) {
	c[k] = v
}

func (c headersCarrier) ForeachKey(handler func(k, v string) error) error {
	for k, v := range c {
		if err := handler(k, v); err != nil {
			return err
		}
	}
	return nil
}

// PropagationHeaders serializes the span's trace context (trace identifier,
// span identifier, sampling decision, baggage) into a header map suitable
// for injection into an outbound request. The header names are chosen by
// the tracer implementation. Pure function of the span's context.
func PropagationHeaders(tracer opentracing.Tracer, span opentracing.Span) (map[string]string, error) {
	carrier := headersCarrier{}
	if err := tracer.Inject(span.Context(), opentracing.TextMap, carrier); err != nil {
		return nil, err
	}
	return carrier, nil
}
