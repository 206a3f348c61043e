// Package docs holds the swagger document served under /swagger. Keep it in
// step with the handler annotations; `go generate ./cmd/api` rebuilds it
// with swag.
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
        "/v1/items": {
            "post": {
                "description": "Stores a conversation history as a prompt item. Supplying an existing id replaces that item.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Items"],
                "summary": "Create a prompt item",
                "parameters": [
                    {
                        "description": "Item messages",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.CreateItem"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created item", "schema": {"$ref": "#/definitions/handlers.ItemResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/v1/items/{id}": {
            "get": {
                "description": "Returns the item's history followed by its generated turns",
                "produces": ["application/json"],
                "tags": ["Items"],
                "summary": "Retrieve a prompt item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ItemResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/v1/items/{id}/messages": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Items"],
                "summary": "Append messages to a prompt item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Messages to append",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.AppendMessages"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ItemResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/v1/items/{id}/watch": {
            "get": {
                "description": "Upgrades to a websocket and pushes one JSON frame per publication for the item until the client disconnects",
                "tags": ["Inference"],
                "summary": "Watch an item's generated turns",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "101": {"description": "one frame per publication", "schema": {"$ref": "#/definitions/websocket.TurnFrame"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/v1/predict": {
            "post": {
                "description": "Generates one model turn per item. Per-item failures are reported in the results and never abort the batch.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Inference"],
                "summary": "Run inference over a batch of items",
                "parameters": [
                    {
                        "description": "Items to process",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.PredictRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PredictResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/v1/ws/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Inference"],
                "summary": "Watch session statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/websocket.StatsResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "details": {"type": "string", "example": "Validation error details"},
                "error": {"type": "string", "example": "Something went wrong"}
            }
        },
        "handlers.ItemResponse": {
            "type": "object",
            "properties": {
                "item": {"$ref": "#/definitions/types.PromptItem"}
            }
        },
        "handlers.PredictRequest": {
            "type": "object",
            "required": ["item_ids"],
            "properties": {
                "item_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.PredictResponse": {
            "type": "object",
            "properties": {
                "failed": {"type": "integer", "example": 0},
                "results": {"type": "array", "items": {"$ref": "#/definitions/handlers.PredictResult"}}
            }
        },
        "handlers.PredictResult": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "error processing prompt item"},
                "invocation_id": {"type": "string", "format": "uuid"},
                "item_id": {"type": "string", "format": "uuid"},
                "ok": {"type": "boolean", "example": true}
            }
        },
        "types.AppendMessages": {
            "description": "Messages appended to an existing prompt item",
            "type": "object",
            "required": ["messages"],
            "properties": {
                "messages": {"type": "array", "items": {"$ref": "#/definitions/types.PromptMessage"}}
            }
        },
        "types.CreateItem": {
            "description": "Prompt item creation body",
            "type": "object",
            "required": ["messages"],
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/types.PromptMessage"}}
            }
        },
        "types.ItemTurn": {
            "type": "object",
            "properties": {
                "confidence": {"type": "number"},
                "created_at": {"type": "string"},
                "final": {"type": "boolean"},
                "id": {"type": "string"},
                "invocation_id": {"type": "string"},
                "model": {"$ref": "#/definitions/types.ModelInfo"},
                "parts": {"type": "array", "items": {"$ref": "#/definitions/types.Part"}},
                "role": {"type": "string", "enum": ["user", "model"]},
                "updated_at": {"type": "string"}
            }
        },
        "types.ModelInfo": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string"},
                "model_id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "types.Part": {
            "type": "object",
            "properties": {
                "data": {"type": "string", "format": "byte"},
                "kind": {"type": "string", "enum": ["text", "image"]},
                "mime_type": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "types.PromptContent": {
            "type": "object",
            "properties": {
                "image_url": {"$ref": "#/definitions/types.PromptImageURL"},
                "text": {"type": "string", "example": "Describe this picture"},
                "type": {"type": "string", "enum": ["text", "image_url"], "example": "text"}
            }
        },
        "types.PromptImageURL": {
            "type": "object",
            "properties": {
                "url": {"type": "string", "example": "data:image/png;base64,iVBORw0KGgo="}
            }
        },
        "types.PromptItem": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "turns": {"type": "array", "items": {"$ref": "#/definitions/types.ItemTurn"}},
                "updated_at": {"type": "string"}
            }
        },
        "types.PromptMessage": {
            "description": "A chat message made of text and image_url parts",
            "type": "object",
            "required": ["content", "role"],
            "properties": {
                "content": {"type": "array", "items": {"$ref": "#/definitions/types.PromptContent"}},
                "role": {"type": "string", "example": "user"}
            }
        },
        "websocket.SessionStats": {
            "type": "object",
            "properties": {
                "connected_at": {"type": "string"},
                "item_id": {"type": "string", "format": "uuid"},
                "last_active": {"type": "string"},
                "session_id": {"type": "string", "format": "uuid"}
            }
        },
        "websocket.StatsResponse": {
            "type": "object",
            "properties": {
                "active_sessions": {"type": "integer", "example": 2},
                "session_timeout": {"type": "string", "example": "30m0s"},
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/websocket.SessionStats"}},
                "watchers": {"type": "integer", "example": 2}
            }
        },
        "websocket.TurnFrame": {
            "type": "object",
            "properties": {
                "confidence": {"type": "number"},
                "created_at": {"type": "string"},
                "final": {"type": "boolean"},
                "id": {"type": "string"},
                "invocation_id": {"type": "string"},
                "item_id": {"type": "string"},
                "model": {"type": "string"},
                "text": {"type": "string"}
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
	Title:            "Conversation Inference API",
	Description:      "Batch inference over stored conversation items with live publication of generated turns.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
