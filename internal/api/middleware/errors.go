package middleware

import (
	"errors"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/process-agent/internal/processor"
)

const (
	KindInvalidRequest   = "invalid_request"
	KindMalformedRequest = "malformed_request"
	KindRequestTooLarge  = "request_too_large"
	KindUpstream         = "upstream_error"
	KindTimeout          = "timeout"
	KindCanceled         = "canceled"
	KindInternal         = "internal_error"
	KindNotFound         = "not_found"
	KindMethodNotAllowed = "method_not_allowed"
	KindUnsupportedMedia = "unsupported_media_type"
	KindNotAcceptable    = "not_acceptable"
)

type ErrorDetail struct {
	Kind    string `json:"kind" description:"Machine readable error class"`
	Message string `json:"message" description:"Human readable error message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error" description:"Error details"`
}

// HandleError writes err with the kind that matches status.
func HandleError(resp *restful.Response, err error, status int) {
	WriteError(resp, status, kindForStatus(status), err.Error())
}

func WriteError(resp *restful.Response, status int, kind string, message string) {
	if err := resp.WriteHeaderAndEntity(status, ErrorResponse{
		Error: ErrorDetail{
			Kind:    kind,
			Message: message,
		},
	}); err != nil {
		resp.WriteHeader(status)
	}
}

// HandleServiceError renders router failures (404, 405, 415, 406) in the same
// error shape as handler failures.
func HandleServiceError(serviceErr restful.ServiceError, req *restful.Request, resp *restful.Response) {
	for key, values := range serviceErr.Header {
		for _, value := range values {
			resp.AddHeader(key, value)
		}
	}

	body := ErrorResponse{
		Error: ErrorDetail{
			Kind:    kindForStatus(serviceErr.Code),
			Message: http.StatusText(serviceErr.Code),
		},
	}
	// no route was selected, so content negotiation has nothing to go on
	if err := resp.WriteHeaderAndJson(serviceErr.Code, body, restful.MIME_JSON); err != nil {
		resp.WriteHeader(serviceErr.Code)
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return KindInvalidRequest
	case http.StatusRequestEntityTooLarge:
		return KindRequestTooLarge
	case http.StatusBadGateway:
		return KindUpstream
	case http.StatusGatewayTimeout:
		return KindTimeout
	case http.StatusServiceUnavailable:
		return KindCanceled
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusMethodNotAllowed:
		return KindMethodNotAllowed
	case http.StatusUnsupportedMediaType:
		return KindUnsupportedMedia
	case http.StatusNotAcceptable:
		return KindNotAcceptable
	default:
		return KindInternal
	}
}

// KindForError classifies processor failures for callers that are not HTTP
// handlers (MCP tools, batch output).
func KindForError(err error) string {
	switch {
	case errors.Is(err, processor.ErrEmptyText), errors.Is(err, processor.ErrEmptyPrompt):
		return KindInvalidRequest
	case errors.Is(err, processor.ErrTimeout):
		return KindTimeout
	case errors.Is(err, processor.ErrCanceled):
		return KindCanceled
	case errors.Is(err, processor.ErrUpstream):
		return KindUpstream
	default:
		return KindInternal
	}
}
