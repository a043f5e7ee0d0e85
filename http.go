package tracebridge

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"

	"goji.io"
	"goji.io/pat"

	"github.com/danielgomezrico/tracebridge/bridge"
	"github.com/danielgomezrico/tracebridge/codec"
)

// Handler returns the Handler responsible for routing request processing.
func (s *Server) Handler() http.Handler {
	mux := goji.NewMux()

	mux.HandleFunc(pat.Get("/healthcheck"), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	mux.HandleFunc(pat.Get("/builddate"), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(BUILD_DATE))
	})

	mux.HandleFunc(pat.Get("/version"), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(VERSION))
	})

	mux.Handle(pat.Post("/v1/call"), handleCall(s))

	mux.Handle(pat.Get("/debug/pprof/cmdline"), http.HandlerFunc(pprof.Cmdline))
	mux.Handle(pat.Get("/debug/pprof/profile"), http.HandlerFunc(pprof.Profile))
	mux.Handle(pat.Get("/debug/pprof/symbol"), http.HandlerFunc(pprof.Symbol))
	mux.Handle(pat.Get("/debug/pprof/trace"), http.HandlerFunc(pprof.Trace))
	mux.Handle(pat.Get("/debug/pprof/*"), http.HandlerFunc(pprof.Index))

	return mux
}

// callRequest is the wire envelope for one dispatched method call.
type callRequest struct {
	Method    string           `json:"method"`
	Arguments bridge.Arguments `json:"arguments"`
}

type callError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type callResponse struct {
	Result interface{} `json:"result"`
}

type callFailure struct {
	Error callError `json:"error"`
}

// handleCall decodes a method-call envelope, runs it through the
// dispatcher under the serialized call discipline, and writes back either
// the result or a typed error. A panic below this point is reported and
// answered with an internal error; the bridge never aborts the host
// process.
func handleCall(s *Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				reportPanic(s.Hostname, p)
				s.logger.WithField("panic", p).Error("Recovered panic while dispatching call")
				writeCallError(w, http.StatusInternalServerError, callError{
					Kind:    bridge.KindInternal,
					Message: "internal error",
				})
			}
		}()

		var req callRequest
		decoder := json.NewDecoder(r.Body)
		// Timestamps are 64-bit microsecond counts; keep them as
		// json.Number instead of forcing everything through float64.
		decoder.UseNumber()
		if err := decoder.Decode(&req); err != nil {
			writeCallError(w, http.StatusBadRequest, callError{
				Kind:    bridge.KindNoArguments,
				Message: "could not decode call envelope: " + err.Error(),
			})
			return
		}
		if req.Method == "" {
			writeCallError(w, http.StatusBadRequest, callError{
				Kind:    bridge.KindMissingParameter,
				Message: "call envelope is missing a method name",
			})
			return
		}

		result, err := s.call(req.Method, req.Arguments)
		if err != nil {
			kind := bridge.ErrorKind(err)
			writeCallError(w, statusForErrorKind(kind), callError{
				Kind:    kind,
				Message: err.Error(),
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(callResponse{Result: codec.ToWire(result)})
	})
}

func statusForErrorKind(kind string) int {
	switch kind {
	case bridge.KindNotImplemented:
		return http.StatusNotImplemented
	case bridge.KindNotInitialized:
		return http.StatusServiceUnavailable
	case bridge.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeCallError(w http.ResponseWriter, status int, ce callError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(callFailure{Error: ce})
}
