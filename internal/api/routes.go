package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/povarna/generative-ai-agents/process-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/process-agent/internal/models"
)

const OpenAPIPath = "/api/v1/openapi.json"

func RegisterRoutes(container *restful.Container, handler *Handler) {
	// clients that omit Content-Type are treated as sending JSON
	restful.DefaultRequestContentType(restful.MIME_JSON)
	container.ServiceErrorHandler(middleware.HandleServiceError)

	root := new(restful.WebService)
	root.
		Path("/").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	root.Route(processRoute(root, handler))

	v1 := new(restful.WebService)
	v1.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	v1.
		Route(v1.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	v1.Route(processRoute(v1, handler))

	container.Add(root)
	container.Add(v1)
}

func processRoute(ws *restful.WebService, handler *Handler) *restful.RouteBuilder {
	// the router treats a POST without Content-Type as octet-stream
	return ws.POST("process").
		To(handler.Process).
		Consumes(restful.MIME_JSON, restful.MIME_OCTET).
		Doc("Run the prompt against the text with the configured model").
		Metadata(restfulspec.KeyOpenAPITags, []string{"process"}).
		Param(ws.QueryParameter("text", "Source text, used only when the body is empty").DataType("string").Required(false)).
		Param(ws.QueryParameter("prompt", "Instruction, used only when the body is empty").DataType("string").Required(false)).
		Reads(models.ProcessRequest{}).
		Writes(models.ProcessResponse{}).
		Returns(200, "OK", models.ProcessResponse{}).
		Returns(400, "Bad Request", middleware.ErrorResponse{}).
		Returns(413, "Request Entity Too Large", middleware.ErrorResponse{}).
		Returns(500, "Internal Server Error", middleware.ErrorResponse{}).
		Returns(502, "Bad Gateway", middleware.ErrorResponse{}).
		Returns(503, "Service Unavailable", middleware.ErrorResponse{}).
		Returns(504, "Gateway Timeout", middleware.ErrorResponse{})
}

// RegisterOpenAPI serves the OpenAPI document for every web service added so far.
func RegisterOpenAPI(container *restful.Container) {
	config := restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       OpenAPIPath,
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}

	container.Add(restfulspec.NewOpenAPIService(config))
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Process Agent API",
			Description: "Forwards a text and an instruction to a local language model",
			Version:     version,
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "process", Description: "Text processing"}},
	}
}
