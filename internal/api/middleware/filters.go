package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog/log"
)

// Logger logs one line per request once the chain has finished.
func Logger(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()

	chain.ProcessFilter(req, resp)

	event := log.Info()
	if resp.StatusCode() >= http.StatusInternalServerError {
		event = log.Error()
	} else if resp.StatusCode() >= http.StatusBadRequest {
		event = log.Warn()
	}

	event.
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("request handled")
}

// RecoverPanic turns a panicking handler into a 500 so the server keeps serving.
func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Str("path", req.Request.URL.Path).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")
			WriteError(resp, http.StatusInternalServerError, KindInternal, "internal server error")
		}
	}()

	chain.ProcessFilter(req, resp)
}

// LimitBody caps how many bytes a handler may read from the request body.
func LimitBody(maxBytes int64) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		if maxBytes > 0 && req.Request.Body != nil {
			req.Request.Body = http.MaxBytesReader(resp.ResponseWriter, req.Request.Body, maxBytes)
		}
		chain.ProcessFilter(req, resp)
	}
}
