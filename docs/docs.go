// Package docs holds the OpenAPI description served at /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange credentials for a bearer token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/habits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["habits"],
                "summary": "List habits",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["habits"],
                "summary": "Create a habit",
                "parameters": [{"in": "body", "name": "habit", "required": true, "schema": {"$ref": "#/definitions/habit"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/habits/sync": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["habits"],
                "summary": "Habits changed since the last sync",
                "parameters": [{"type": "string", "in": "query", "name": "last_sync", "description": "RFC3339 timestamp"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/habits/{id}/completions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["completions"],
                "summary": "Completion history of a habit",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "string", "in": "query", "name": "from"},
                    {"type": "string", "in": "query", "name": "to"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["completions"],
                "summary": "Record a habit's outcome for a date",
                "description": "Without \"completed\" the stored state of the date is flipped.",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/toggle"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}
            }
        },
        "/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "List tasks",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Create a task",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/agenda": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["agenda"],
                "summary": "Habits and tasks scheduled for one day",
                "parameters": [{"type": "string", "in": "query", "name": "date", "description": "YYYY-MM-DD"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/stats/weekly": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["stats"],
                "summary": "Completion rates over a date range",
                "parameters": [
                    {"type": "string", "in": "query", "name": "start_date"},
                    {"type": "string", "in": "query", "name": "end_date"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "credentials": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "recurrence": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["simple", "custom_weekly", "limited", "unlimited", "alternating", "custom_cycle", "task"]},
                "frequency": {"type": "string"},
                "times_per_week": {"type": "integer"},
                "specific_days": {"type": "array", "items": {"type": "integer"}},
                "max_occurrences": {"type": "integer"},
                "end_after_days": {"type": "integer"},
                "active_days": {"type": "integer"},
                "rest_days": {"type": "integer"},
                "pattern": {"type": "array", "items": {"type": "boolean"}},
                "repeat_every_weeks": {"type": "integer"},
                "skip_weekends": {"type": "boolean"},
                "skip_holidays": {"type": "boolean"},
                "interval": {"type": "integer"},
                "days_of_week": {"type": "array", "items": {"type": "integer"}},
                "day_of_month": {"type": "integer"},
                "end_date": {"type": "string"}
            }
        },
        "habit": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "color": {"type": "string"},
                "icon": {"type": "string"},
                "type": {"type": "string", "enum": ["boolean", "numeric", "timer"]},
                "target_value": {"type": "integer"},
                "recurrence": {"$ref": "#/definitions/recurrence"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            }
        },
        "toggle": {
            "type": "object",
            "required": ["date"],
            "properties": {
                "date": {"type": "string"},
                "completed": {"type": "boolean"},
                "value": {"type": "number"},
                "notes": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Kanso Progress API",
	Description:      "Habits, tasks, completions, agenda and progress statistics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
