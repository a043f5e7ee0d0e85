// Package bridge implements the span-handle bridge between a serialized
// method-call boundary and a native opentracing tracer. Callers on the far
// side of the boundary name spans by opaque integer handles; the bridge
// maps handles to live spans, enforces lifecycle correctness, and applies
// tags, baggage, logs and trace propagation on their behalf.
package bridge

import (
	"sync"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/sirupsen/logrus"

	"github.com/danielgomezrico/tracebridge/codec"
)

// Method names recognized by the dispatcher. Mutation calls carry the
// "span." prefix to indicate they target an existing span.
const (
	MethodStartRootSpan   = "startRootSpan"
	MethodStartSpan       = "startSpan"
	MethodSetActive       = "span.setActive"
	MethodSetError        = "span.setError"
	MethodSetTag          = "span.setTag"
	MethodSetBaggageItem  = "span.setBaggageItem"
	MethodLog             = "span.log"
	MethodFinish          = "span.finish"
	MethodCancel          = "span.cancel"
	MethodGetTraceHeaders = "getTracePropagationHeaders"
)

// ResourceKey is the reserved tag key the optional resourceName creation
// argument is applied under.
const ResourceKey = "resource.name"

// For an error to be recorded correctly in Datadog, these three tags need
// to be set.
const (
	errorTypeTag    = "error.type"
	errorMessageTag = "error.msg"
	errorStackTag   = "error.stack"
)

const (
	metricCalls          = "bridge.calls_total"
	metricCallErrors     = "bridge.call_errors_total"
	metricSpansStarted   = "bridge.spans.started"
	metricSpansFinished  = "bridge.spans.finished"
	metricSpansCancelled = "bridge.spans.cancelled"
	metricSpansOpen      = "bridge.spans.open"
)

// Dispatcher is the single entry point for calls arriving over the
// boundary. One call is fully processed before the next is dispatched on
// the call channel; the transport above is responsible for that
// discipline.
type Dispatcher struct {
	tracer   opentracing.Tracer
	registry *Registry
	statsd   Statsd
	log      *logrus.Logger

	// The active span is the implicit parent for spans started without a
	// resolvable explicit parent. Guarded separately from the registry
	// because tracer callbacks never touch it.
	activeMtx    sync.Mutex
	activeHandle int64
	activeSpan   opentracing.Span
}

// NewDispatcher constructs a dispatcher around the given tracer
// capability. A nil tracer is permitted; every call will then fail with
// ErrNotInitialized until a dispatcher is built with a live one. A nil
// statsd client disables metrics; a nil logger falls back to the standard
// logrus logger.
func NewDispatcher(tracer opentracing.Tracer, stats Statsd, log *logrus.Logger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		tracer:   tracer,
		registry: NewRegistry(),
		statsd:   EnsureStatsd(stats),
		log:      log,
	}
}

// Registry exposes the handle registry, mainly for tests and diagnostics.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Call routes a named method invocation to the matching span-lifecycle or
// span-mutation operation. The result is the method's wire result (bool
// for creation calls, a header map for propagation, nil otherwise); errors
// follow the protocol/precondition taxonomy in this package.
func (d *Dispatcher) Call(method string, args Arguments) (interface{}, error) {
	d.statsd.Incr(metricCalls, []string{"method:" + method}, 1)

	result, err := d.dispatch(method, args)
	if err != nil {
		d.statsd.Incr(metricCallErrors, []string{"kind:" + ErrorKind(err)}, 1)
		d.log.WithError(err).WithField("method", method).Debug("Bridge call failed")
	}
	return result, err
}

func (d *Dispatcher) dispatch(method string, args Arguments) (interface{}, error) {
	if d.tracer == nil {
		return nil, ErrNotInitialized
	}

	var fn func(string, Arguments) (interface{}, error)
	switch method {
	case MethodStartRootSpan, MethodStartSpan:
		fn = d.startSpan
	case MethodSetActive:
		fn = d.setActive
	case MethodSetError:
		fn = d.setError
	case MethodSetTag:
		fn = d.setTag
	case MethodSetBaggageItem:
		fn = d.setBaggageItem
	case MethodLog:
		fn = d.logFields
	case MethodFinish:
		fn = d.finish
	case MethodCancel:
		fn = d.cancel
	case MethodGetTraceHeaders:
		fn = d.propagationHeaders
	default:
		return nil, &NotImplementedError{Method: method}
	}

	if len(args) == 0 {
		return nil, ErrNoArguments
	}
	return fn(method, args)
}

// startSpan handles both startRootSpan and startSpan. The result is true
// when a span was created and registered, false when the handle is already
// open; a collision is a caller-visible condition, not an error.
func (d *Dispatcher) startSpan(method string, args Arguments) (interface{}, error) {
	handle, err := args.Int64(method, "spanHandle")
	if err != nil {
		return nil, err
	}
	operationName, err := args.String(method, "operationName")
	if err != nil {
		return nil, err
	}
	startTime, err := args.Time(method, "startTime")
	if err != nil {
		return nil, err
	}

	if d.registry.Contains(handle) {
		d.log.WithFields(logrus.Fields{
			"handle":    handle,
			"operation": operationName,
		}).Debug("Span handle already registered, refusing to create")
		return false, nil
	}

	opts := []opentracing.StartSpanOption{opentracing.StartTime(startTime)}
	if method == MethodStartSpan {
		if parent := d.resolveParent(args); parent != nil {
			opts = append(opts, opentracing.ChildOf(parent.Context()))
		}
	}
	if tags, ok := args.OptionalBag("tags"); ok {
		opts = append(opts, opentracing.Tags(codec.EncodeBag(tags)))
	}

	span := d.tracer.StartSpan(operationName, opts...)
	if resource, ok := args.OptionalString("resourceName"); ok {
		span.SetTag(ResourceKey, resource)
	}

	// The registry re-checks under its own lock; losing here means the
	// caller raced itself on the handle, and the fresh span is abandoned
	// unfinished, exactly as if the call had been rejected up front.
	if !d.registry.Insert(handle, span) {
		return false, nil
	}

	d.statsd.Incr(metricSpansStarted, nil, 1)
	d.statsd.Gauge(metricSpansOpen, float64(d.registry.Len()), nil, 1)
	return true, nil
}

// resolveParent picks the parent for a new non-root span: the explicit
// parentSpan handle when it resolves, otherwise the active span, otherwise
// nothing. A parentSpan handle that no longer resolves degrades to "no
// parent" rather than failing the call; a disappeared parent should not
// block the child span.
func (d *Dispatcher) resolveParent(args Arguments) opentracing.Span {
	if parentHandle, ok := args.OptionalInt64("parentSpan"); ok {
		if parent, ok := d.registry.Lookup(parentHandle); ok {
			return parent
		}
		d.log.WithField("parentSpan", parentHandle).Debug(
			"Parent span handle is not resolvable, starting span without parent")
		return nil
	}

	d.activeMtx.Lock()
	defer d.activeMtx.Unlock()
	return d.activeSpan
}

func (d *Dispatcher) setActive(method string, args Arguments) (interface{}, error) {
	span, handle, err := d.resolveSpan(method, args)
	if err != nil || span == nil {
		return nil, err
	}

	d.activeMtx.Lock()
	d.activeHandle = handle
	d.activeSpan = span
	d.activeMtx.Unlock()
	return nil, nil
}

func (d *Dispatcher) setError(method string, args Arguments) (interface{}, error) {
	span, _, err := d.resolveSpan(method, args)
	if err != nil || span == nil {
		return nil, err
	}

	kind, err := args.String(method, "kind")
	if err != nil {
		return nil, err
	}
	message, err := args.String(method, "message")
	if err != nil {
		return nil, err
	}

	span.SetTag(errorTypeTag, kind)
	span.SetTag(errorMessageTag, message)
	if stack, ok := args.OptionalString("stackTrace"); ok {
		span.SetTag(errorStackTag, stack)
	}
	ext.Error.Set(span, true)
	return nil, nil
}

func (d *Dispatcher) setTag(method string, args Arguments) (interface{}, error) {
	span, _, err := d.resolveSpan(method, args)
	if err != nil || span == nil {
		return nil, err
	}

	key, err := args.String(method, "key")
	if err != nil {
		return nil, err
	}
	value, err := args.Value(method, "value")
	if err != nil {
		return nil, err
	}

	span.SetTag(key, codec.Encode(value))
	return nil, nil
}

func (d *Dispatcher) setBaggageItem(method string, args Arguments) (interface{}, error) {
	span, _, err := d.resolveSpan(method, args)
	if err != nil || span == nil {
		return nil, err
	}

	key, err := args.String(method, "key")
	if err != nil {
		return nil, err
	}
	value, err := args.String(method, "value")
	if err != nil {
		return nil, err
	}

	span.SetBaggageItem(key, value)
	return nil, nil
}

func (d *Dispatcher) logFields(method string, args Arguments) (interface{}, error) {
	span, _, err := d.resolveSpan(method, args)
	if err != nil || span == nil {
		return nil, err
	}

	fields, err := args.Bag(method, "fields")
	if err != nil {
		return nil, err
	}

	span.LogFields(codec.LogFields(fields)...)
	return nil, nil
}

func (d *Dispatcher) finish(method string, args Arguments) (interface{}, error) {
	span, handle, err := d.resolveSpan(method, args)
	if err != nil || span == nil {
		return nil, err
	}

	finishTime, err := args.Time(method, "finishTime")
	if err != nil {
		return nil, err
	}

	span.FinishWithOptions(opentracing.FinishOptions{FinishTime: finishTime})
	d.registry.Remove(handle)
	d.clearActive(handle)

	d.statsd.Incr(metricSpansFinished, nil, 1)
	d.statsd.Gauge(metricSpansOpen, float64(d.registry.Len()), nil, 1)
	return nil, nil
}

// cancel removes the handle without finalizing the span in the tracer: no
// completion timestamp or status is ever recorded for a cancelled span.
func (d *Dispatcher) cancel(method string, args Arguments) (interface{}, error) {
	span, handle, err := d.resolveSpan(method, args)
	if err != nil || span == nil {
		return nil, err
	}

	d.registry.Remove(handle)
	d.clearActive(handle)

	d.statsd.Incr(metricSpansCancelled, nil, 1)
	d.statsd.Gauge(metricSpansOpen, float64(d.registry.Len()), nil, 1)
	return nil, nil
}

// propagationHeaders returns the trace propagation header map for an open
// span, and an empty map for a handle that is unknown or for a context the
// tracer refuses to inject. Callers may race span completion against
// header extraction, so neither case is an error.
func (d *Dispatcher) propagationHeaders(method string, args Arguments) (interface{}, error) {
	span, handle, err := d.resolveSpan(method, args)
	if err != nil {
		return nil, err
	}
	if span == nil {
		return map[string]string{}, nil
	}

	headers, err := PropagationHeaders(d.tracer, span)
	if err != nil {
		d.log.WithError(err).WithField("handle", handle).Debug(
			"Tracer could not inject propagation headers")
		return map[string]string{}, nil
	}
	return headers, nil
}

// resolveSpan decodes the spanHandle argument and looks it up. A handle
// that does not resolve yields (nil, handle, nil): a finished, cancelled
// or never-created span is already terminal, and late-arriving calls
// against it are silently ignored rather than raised.
func (d *Dispatcher) resolveSpan(method string, args Arguments) (opentracing.Span, int64, error) {
	handle, err := args.Int64(method, "spanHandle")
	if err != nil {
		return nil, 0, err
	}
	span, ok := d.registry.Lookup(handle)
	if !ok {
		return nil, handle, nil
	}
	return span, handle, nil
}

func (d *Dispatcher) clearActive(handle int64) {
	d.activeMtx.Lock()
	defer d.activeMtx.Unlock()

	if d.activeHandle == handle {
		d.activeHandle = 0
		d.activeSpan = nil
	}
}
