// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/events/{eventID}/participation": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Registers the caller for the event, or places them on the waitlist when the event is full. A previously cancelled participation is reinstated.",
                "produces": ["application/json"],
                "tags": ["participation"],
                "summary": "Join an event",
                "parameters": [{"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "data.status is REGISTERED or WAITLISTED", "schema": {"$ref": "#/definitions/controllers.ParticipationSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: event_not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: event_not_joinable or already_registered", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Cancels the caller's participation. When a confirmed slot is freed, the earliest waitlisted participant is promoted and notified.",
                "produces": ["application/json"],
                "tags": ["participation"],
                "summary": "Leave an event",
                "parameters": [{"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data.status is CANCELLED", "schema": {"$ref": "#/definitions/controllers.ParticipationSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: event_not_found or not_registered", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: already_cancelled", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/participations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the caller's participation status for each requested event. Events the caller never joined are omitted.",
                "produces": ["application/json"],
                "tags": ["participation"],
                "summary": "Get the caller's participation statuses",
                "parameters": [{"type": "string", "description": "Comma-separated event IDs", "name": "event_ids", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "data maps event ID to status", "schema": {"$ref": "#/definitions/controllers.ParticipationStatusesSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{eventID}/statistics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns participation counts, fill rate, and attendance rate for one event. Only the event's organizer or an admin may call this.",
                "produces": ["application/json"],
                "tags": ["statistics"],
                "summary": "Get participation statistics for an event",
                "parameters": [{"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the event statistics", "schema": {"$ref": "#/definitions/controllers.EventStatisticsSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: event_not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/organizer/statistics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Aggregates participation statistics over every event the caller organizes. Requires the ORGANIZER or ADMIN role.",
                "produces": ["application/json"],
                "tags": ["statistics"],
                "summary": "Get statistics across the caller's events",
                "responses": {
                    "200": {"description": "data contains the aggregate and per-event statistics", "schema": {"$ref": "#/definitions/controllers.OrganizerStatisticsSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "helpers.APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {"data": {}, "error": {"$ref": "#/definitions/helpers.APIError"}}
        },
        "domain.Participation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "event_id": {"type": "string"},
                "status": {"type": "string", "enum": ["REGISTERED", "CONFIRMED", "WAITLISTED", "CANCELLED", "ATTENDED"]},
                "registered_at": {"type": "string"}
            }
        },
        "domain.EventStatistics": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "capacity": {"type": "integer"},
                "registered_count": {"type": "integer"},
                "confirmed_count": {"type": "integer"},
                "waitlisted_count": {"type": "integer"},
                "cancelled_count": {"type": "integer"},
                "attended_count": {"type": "integer"},
                "active_count": {"type": "integer"},
                "total_count": {"type": "integer"},
                "fill_rate": {"type": "number"},
                "attendance_rate": {"type": "number"},
                "past": {"type": "boolean"}
            }
        },
        "domain.OrganizerStatistics": {
            "type": "object",
            "properties": {
                "organizer_id": {"type": "string"},
                "event_count": {"type": "integer"},
                "active_count": {"type": "integer"},
                "waitlisted_count": {"type": "integer"},
                "cancelled_count": {"type": "integer"},
                "attended_count": {"type": "integer"},
                "attendance_rate": {"type": "number"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/domain.EventStatistics"}}
            }
        },
        "controllers.ParticipationSuccessResponse": {
            "type": "object",
            "properties": {"data": {"$ref": "#/definitions/domain.Participation"}, "error": {"$ref": "#/definitions/helpers.APIError"}}
        },
        "controllers.ParticipationStatusesSuccessResponse": {
            "type": "object",
            "properties": {"data": {"type": "object", "additionalProperties": {"type": "string"}}, "error": {"$ref": "#/definitions/helpers.APIError"}}
        },
        "controllers.EventStatisticsSuccessResponse": {
            "type": "object",
            "properties": {"data": {"$ref": "#/definitions/domain.EventStatistics"}, "error": {"$ref": "#/definitions/helpers.APIError"}}
        },
        "controllers.OrganizerStatisticsSuccessResponse": {
            "type": "object",
            "properties": {"data": {"$ref": "#/definitions/domain.OrganizerStatistics"}, "error": {"$ref": "#/definitions/helpers.APIError"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the JWT.",
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
	Title:            "Event Participation API",
	Description:      "Capacity-bounded event participation with waitlist promotion.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
