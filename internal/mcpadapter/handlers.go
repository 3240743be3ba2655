package mcpadapter

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/process-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/process-agent/internal/models"
)

const ProcessToolName = "process_text"

// ProcessInput is the MCP tool input schema (matches HTTP API field names).
type ProcessInput struct {
	Text   string `json:"text" jsonschema:"text to be processed by the model"`
	Prompt string `json:"prompt" jsonschema:"instruction applied to the text"`
}

type Processor interface {
	Process(ctx context.Context, req models.ProcessRequest) (*models.ProcessResponse, error)
	ModelID() string
}

// NewServer exposes the processor as a single MCP tool.
func NewServer(proc Processor, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "process-agent",
			Version: version,
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ProcessToolName,
		Description: fmt.Sprintf("Apply an instruction to a text with the %s model and return the generated response", proc.ModelID()),
	}, NewProcessHandler(proc))

	return server
}

// NewProcessHandler returns a tool handler that uses the given processor.
// Pass the returned function to mcp.AddTool.
func NewProcessHandler(proc Processor) func(context.Context, *mcp.CallToolRequest, ProcessInput) (*mcp.CallToolResult, models.ProcessResponse, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProcessInput) (*mcp.CallToolResult, models.ProcessResponse, error) {
		return ProcessText(ctx, proc, req, input)
	}
}

// ProcessText runs one generation. Failures become tool errors prefixed with
// the same kind the HTTP API reports.
func ProcessText(
	ctx context.Context,
	proc Processor,
	req *mcp.CallToolRequest,
	input ProcessInput,
) (*mcp.CallToolResult, models.ProcessResponse, error) {
	result, err := proc.Process(ctx, models.ProcessRequest{
		Text:   input.Text,
		Prompt: input.Prompt,
	})
	if err != nil {
		return nil, models.ProcessResponse{}, fmt.Errorf("%s: %w", middleware.KindForError(err), err)
	}

	return nil, *result, nil
}
