// Package docs registers the swagger document of the calcbot HTTP gateway.
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
        "/api/v1/analyze": {
            "post": {
                "security": [{"GatewayToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["core"],
                "summary": "Descriptive statistics",
                "parameters": [
                    {
                        "description": "Data set",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/main.analyzeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/errors.Response"}}
                }
            }
        },
        "/api/v1/commands": {
            "get": {
                "security": [{"GatewayToken": []}],
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "List command definitions",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}
                }
            }
        },
        "/api/v1/commands/{name}": {
            "post": {
                "security": [{"GatewayToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Run a command",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Command name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Command options",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/main.commandRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.Response"}}
                }
            }
        },
        "/api/v1/regression": {
            "post": {
                "security": [{"GatewayToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["core"],
                "summary": "Fit a regression model",
                "parameters": [
                    {
                        "description": "Paired data and model",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/main.regressionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/errors.Response"}}
                }
            }
        },
        "/api/v1/ws": {
            "get": {
                "security": [{"GatewayToken": []}],
                "description": "Upgrades to a WebSocket carrying invoke/ping frames.",
                "tags": ["commands"],
                "summary": "Command WebSocket",
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.Response"}},
                    "403": {"description": "Origin not allowed"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "errors.Response": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "main.analyzeRequest": {
            "type": "object",
            "required": ["data", "type"],
            "properties": {
                "data": {"type": "string", "example": "1 2 3 4 100"},
                "type": {"type": "string", "enum": ["parameter", "statistic"]}
            }
        },
        "main.commandRequest": {
            "type": "object",
            "properties": {
                "options": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "main.regressionRequest": {
            "type": "object",
            "required": ["type", "x_values", "y_values"],
            "properties": {
                "type": {"type": "string", "enum": ["linear", "quadratic", "cubic", "quartic", "exp10", "log10", "expe", "loge"]},
                "x_values": {"type": "string", "example": "1 2 3 4"},
                "y_values": {"type": "string", "example": "2 4 6 8"}
            }
        }
    },
    "securityDefinitions": {
        "GatewayToken": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "calcbot gateway",
	Description:      "Statistics, regression and cipher commands for chat platforms.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
