package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/process-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/process-agent/internal/models"
	"github.com/povarna/generative-ai-agents/process-agent/internal/processor"
	"github.com/rs/zerolog"
)

const version = "1.0.0"

// Processor runs a single text/prompt request against the model.
type Processor interface {
	Process(ctx context.Context, req models.ProcessRequest) (*models.ProcessResponse, error)
	ModelID() string
}

type HealthResponse struct {
	Status  string `json:"status" description:"Service status"`
	Version string `json:"version" description:"API version"`
	Model   string `json:"model" description:"Model requests are forwarded to"`
}

type Handler struct {
	processor Processor
	logger    *zerolog.Logger
}

func NewHandler(processor Processor, logger *zerolog.Logger) *Handler {
	return &Handler{
		processor: processor,
		logger:    logger,
	}
}

// POST /process
// Body: ProcessRequest, or an empty body with text and prompt query parameters
// Returns: ProcessResponse
func (h *Handler) Process(req *restful.Request, resp *restful.Response) {
	processRequest, err := readProcessRequest(req)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.logger.Warn().Int64("limit", maxBytesErr.Limit).Msg("Request body too large")
			middleware.HandleError(resp, err, http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.WriteError(resp, http.StatusBadRequest, middleware.KindMalformedRequest, err.Error())
		return
	}

	h.logger.Info().
		Int("text_chars", len([]rune(processRequest.Text))).
		Int("prompt_chars", len([]rune(processRequest.Prompt))).
		Msg("Start processing")

	ctx := req.Request.Context()

	result, err := h.processor.Process(ctx, processRequest)
	if err != nil {
		status := statusFor(err)
		h.logger.Error().Err(err).Int("status", status).Msg("Processing failed")
		middleware.HandleError(resp, err, status)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	healthResponse := HealthResponse{
		Status:  "ok",
		Version: version,
		Model:   h.processor.ModelID(),
	}

	resp.WriteHeaderAndEntity(http.StatusOK, healthResponse)
}

func readProcessRequest(req *restful.Request) (models.ProcessRequest, error) {
	var processRequest models.ProcessRequest

	// typed query parameters are only used when there is no body at all
	if req.Request.ContentLength == 0 {
		processRequest.Text = req.QueryParameter("text")
		processRequest.Prompt = req.QueryParameter("prompt")
		return processRequest, nil
	}

	if err := req.ReadEntity(&processRequest); err != nil {
		return processRequest, err
	}

	return processRequest, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, processor.ErrEmptyText), errors.Is(err, processor.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, processor.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, processor.ErrCanceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, processor.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
