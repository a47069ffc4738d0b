package api

import (
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/winlab/netconflogger/internal/ingress"
	"github.com/winlab/netconflogger/pkg/models"
)

func buildOpenAPISpec() *openapi3.T {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "netconflogger API",
			Description: "Status of the device event relay and the ingress it accepts",
			Version:     "1.0.0",
		},
		Paths: &openapi3.Paths{},
		Tags: openapi3.Tags{
			{Name: "General", Description: "General API endpoints"},
			{Name: "Ingress", Description: "Device event ingress"},
		},
	}

	spec.Paths.Set("/api/status", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"General"},
			Summary:     "Relay and event bus status",
			OperationID: "getStatus",
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Relay counters", reflect.TypeOf(StatusResponse{}))),
			),
		},
	})

	spec.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"General"},
			Summary:     "Liveness probe",
			OperationID: "getHealth",
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Process is up", reflect.TypeOf(HealthResponse{}))),
			),
		},
	})

	spec.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"General"},
			Summary:     "Readiness probe backed by the collector watchdog",
			OperationID: "getReady",
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse("Collector reachable", reflect.TypeOf(ReadyResponse{}))),
				openapi3.WithStatus(503, jsonResponse("Collector unreachable", reflect.TypeOf(ReadyResponse{}))),
			),
		},
	})

	spec.Paths.Set("/api/openapi.json", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"General"},
			Summary:     "This document",
			OperationID: "getOpenAPI",
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, &openapi3.ResponseRef{
					Value: &openapi3.Response{
						Description: ptr("OpenAPI 3 document"),
						Content:     openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema()),
					},
				}),
			),
		},
	})

	rawBody := openapi3.NewStringSchema()
	rawBody.Description = "One device event dump per line"

	spec.Paths.Set("/v1/events", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"Ingress"},
			Summary:     "Submit device events (served on the ingress listener)",
			OperationID: "postEvents",
			RequestBody: &openapi3.RequestBodyRef{
				Value: &openapi3.RequestBody{
					Required: true,
					Content: openapi3.Content{
						"text/plain": &openapi3.MediaType{Schema: rawBody.NewRef()},
						"application/json": &openapi3.MediaType{Schema: &openapi3.SchemaRef{
							Value: &openapi3.Schema{
								OneOf: openapi3.SchemaRefs{
									schemaFromType(reflect.TypeOf(models.DeviceEvent{})),
									schemaFromType(reflect.TypeOf([]models.DeviceEvent{})),
								},
							},
						}},
					},
				},
			},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(202, jsonResponse("Events queued for forwarding", reflect.TypeOf(ingress.AcceptedResponse{}))),
				openapi3.WithStatus(400, jsonResponse("Empty or undecodable payload", reflect.TypeOf(ErrorResponse{}))),
				openapi3.WithStatus(405, jsonResponse("Only POST is allowed", reflect.TypeOf(ErrorResponse{}))),
			),
		},
	})

	return spec
}

func jsonResponse(description string, t reflect.Type) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: ptr(description),
			Content:     openapi3.NewContentWithJSONSchemaRef(schemaFromType(t)),
		},
	}
}

func schemaFromType(t reflect.Type) *openapi3.SchemaRef {
	if t == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == reflect.TypeOf(time.Time{}) {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}}}

	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Slice:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: schemaFromType(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: schemaFromType(t.Elem())},
			},
		}

	case reflect.Struct:
		return structToSchema(t)
	}

	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
}

func structToSchema(t reflect.Type) *openapi3.SchemaRef {
	properties := openapi3.Schemas{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			if n, _, _ := strings.Cut(jsonTag, ","); n != "" {
				name = n
			}
		}

		propSchema := schemaFromType(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			propSchema.Value.Description = desc
		}

		properties[name] = propSchema
	}

	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: properties,
		},
	}
}

func ptr(s string) *string {
	return &s
}
