// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness banner",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Service is running", "schema": {"type": "string"}}
                }
            }
        },
        "/customers": {
            "get": {
                "tags": ["customers"],
                "summary": "List customers",
                "description": "Return every customer record in insertion order",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Customer"}}},
                    "500": {"description": "Store unreadable", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            },
            "post": {
                "tags": ["customers"],
                "summary": "Create a customer",
                "description": "Store the request body as a new record with a generated id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Customer"}},
                    "400": {"description": "Body is not a JSON object", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            }
        },
        "/customers/{id}": {
            "get": {
                "tags": ["customers"],
                "summary": "Get customer by ID",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Customer"}},
                    "400": {"description": "Invalid id", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            },
            "put": {
                "tags": ["customers"],
                "summary": "Update a customer",
                "description": "Shallow-merge the request body over an existing record",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "request", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Customer"}},
                    "400": {"description": "Invalid id or body", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            },
            "delete": {
                "tags": ["customers"],
                "summary": "Delete a customer",
                "description": "Remove every record with the id; succeeds even if none matched",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "400": {"description": "Invalid id", "schema": {"$ref": "#/definitions/MessageResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "Server is healthy"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Store is readable"},
                    "503": {"description": "Store is not readable"}
                }
            }
        }
    },
    "definitions": {
        "Customer": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "integer", "description": "Creation time in Unix epoch milliseconds"}
            },
            "additionalProperties": true
        },
        "MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "CRM Mini API",
	Description:      "Create, read, update and delete customer records stored in a JSON file",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
