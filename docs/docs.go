// Package docs holds the OpenAPI document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/check": {
            "post": {
                "description": "Extracts the text of the uploaded PDF and judges each rule against it with a language model. The result has one entry per rule, in submission order.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["check"],
                "summary": "Check a PDF against rules",
                "parameters": [
                    {"type": "file", "description": "PDF document (the part may also be named file)", "name": "pdf", "in": "formData", "required": true},
                    {"type": "string", "description": "JSON array of rule strings", "name": "rules", "in": "formData", "required": true},
                    {"type": "string", "description": "Response format: json (default) or xlsx", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "One verdict per rule", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.RuleResultBody"}}},
                    "400": {"description": "Missing document or malformed rules", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Document could not be read", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "504": {"description": "Evaluation timed out", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/v1/check/object": {
            "post": {
                "description": "Fetches a PDF from S3-compatible object storage and judges each rule against it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["check"],
                "summary": "Check a stored PDF against rules",
                "parameters": [
                    {"description": "Object location and rules", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CheckObjectRequest"}},
                    {"type": "string", "description": "Response format: json (default) or xlsx", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "One verdict per rule", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.RuleResultBody"}}},
                    "400": {"description": "Missing key or malformed rules", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Object not found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "413": {"description": "Object too large", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Document could not be read", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "501": {"description": "Object storage not configured", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "504": {"description": "Evaluation timed out", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/readyz": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Unavailable"}}}
        }
    },
    "definitions": {
        "handler.CheckObjectRequest": {
            "type": "object",
            "properties": {
                "bucket": {"type": "string", "example": "contracts"},
                "key": {"type": "string", "example": "2024/msa-acme.pdf"},
                "rules": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "document could not be read"}
            }
        },
        "handler.RuleResultBody": {
            "type": "object",
            "properties": {
                "rule": {"type": "string", "example": "The document must have a purpose section."},
                "status": {"type": "string", "enum": ["pass", "fail"], "example": "pass"},
                "evidence": {"type": "string", "example": "Section 1: Purpose of this agreement"},
                "reasoning": {"type": "string", "example": "Section 1 states the purpose explicitly."},
                "confidence": {"type": "integer", "maximum": 100, "minimum": 0, "example": 92}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "niyamr API",
	Description:      "Checks PDF documents against natural-language compliance rules.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
