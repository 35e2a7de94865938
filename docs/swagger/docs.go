// Package swagger registers the generated OpenAPI spec for the API server.
// Code generated by swag; regenerate with `go generate ./internal/server`.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "primeseek Maintainers",
            "url": "https://github.com/uorlab/primeseek"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List jobs",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/app.Job"}}
                    }
                }
            }
        },
        "/api/jobs/{jobID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "jobID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/app.Job"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Cancel a job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "jobID", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/app.Job"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "List sessions",
                "description": "Returns the state of every live session.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/session.State"}}
                    }
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Create a session",
                "description": "Starts a new goal-seeking session with an optional strategy and seed.",
                "parameters": [
                    {"description": "Session options", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.createSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/session.State"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get a session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.State"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Close a session",
                "description": "Removes a session from the registry. Persisted history stays in the store.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "closed"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/attempts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["introspection"],
                "summary": "Attempt history",
                "description": "Returns the persisted attempts for a session, oldest first.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/store.AttemptRecord"}}
                    },
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/snapshots/diff": {
            "get": {
                "produces": ["application/json"],
                "tags": ["introspection"],
                "summary": "Diff two snapshots",
                "description": "Line diff between two program snapshots of the same session.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Base snapshot ID", "name": "base", "in": "query", "required": true},
                    {"type": "string", "description": "Head snapshot ID", "name": "head", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/store.SnapshotDiff"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/input": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["control"],
                "summary": "Answer an input request",
                "description": "Supplies a value to a manual session parked on an input instruction.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Input value", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.provideInputRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.State"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/jobs": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Start an episode job",
                "description": "Drives the session in the background until it completes the requested goals.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Goal count", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.startJobRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/app.Job"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/program": {
            "get": {
                "produces": ["application/json"],
                "tags": ["introspection"],
                "summary": "Current program listing",
                "description": "Returns the session's live program, one chunk per address.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.State"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/reflection": {
            "get": {
                "produces": ["application/json"],
                "tags": ["introspection"],
                "summary": "Session reflection",
                "description": "Summarizes the session's accumulated experience as patterns and a narrative.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/reflection.Reflection"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/run": {
            "post": {
                "produces": ["application/json"],
                "tags": ["control"],
                "summary": "Run one attempt",
                "description": "Drives the session until it completes exactly one attempt.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.State"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/snapshots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["introspection"],
                "summary": "Program snapshots",
                "description": "Returns the program snapshots taken whenever the session rewrote itself.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/store.SnapshotRecord"}}
                    },
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/sessions/{id}/step": {
            "post": {
                "produces": ["application/json"],
                "tags": ["control"],
                "summary": "Step a session",
                "description": "Executes a single VM instruction, answering the feedback protocol as needed.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.State"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/api/strategies": {
            "get": {
                "produces": ["application/json"],
                "tags": ["strategies"],
                "summary": "List advisor strategies",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"type": "string"}}
                    }
                }
            }
        }
    },
    "definitions": {
        "app.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "session_id": {"type": "string"},
                "goals": {"type": "integer"},
                "status": {"type": "string"},
                "error": {"type": "string"},
                "started_at": {"type": "string"},
                "ended_at": {"type": "string"},
                "result": {"$ref": "#/definitions/session.State"}
            }
        },
        "reflection.Reflection": {
            "type": "object",
            "properties": {
                "generated_at": {"type": "string"},
                "hash": {"type": "string"},
                "experiences": {"type": "integer"},
                "success_rate": {"type": "number"},
                "self_assessment": {"type": "object", "additionalProperties": true},
                "patterns": {"type": "array", "items": {"type": "string"}},
                "insights": {"type": "array", "items": {"type": "string"}},
                "metacognitive_depth": {"type": "integer"},
                "narrative": {"type": "string"}
            }
        },
        "server.createSessionRequest": {
            "type": "object",
            "properties": {
                "strategy": {"type": "string"},
                "seed": {"type": "integer"},
                "manual": {"type": "boolean"}
            }
        },
        "server.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "server.provideInputRequest": {
            "type": "object",
            "properties": {
                "value": {"type": "integer"}
            }
        },
        "server.startJobRequest": {
            "type": "object",
            "properties": {
                "goals": {"type": "integer"}
            }
        },
        "session.State": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "created_at": {"type": "string"},
                "strategy": {"type": "string"},
                "phase": {"type": "string"},
                "difficulty": {"type": "string"},
                "target": {"type": "integer"},
                "goal_kind": {"type": "string"},
                "attempts": {"type": "integer"},
                "total_attempts": {"type": "integer"},
                "goals_completed": {"type": "integer"},
                "program": {"type": "array", "items": {"type": "object"}}
            }
        },
        "store.AttemptRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "session_id": {"type": "string"},
                "target": {"type": "integer"},
                "attempt": {"type": "integer"},
                "success": {"type": "boolean"},
                "stuck": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "store.SnapshotDiff": {
            "type": "object",
            "properties": {
                "base_id": {"type": "string"},
                "head_id": {"type": "string"},
                "changed": {"type": "boolean"},
                "lines": {"type": "array", "items": {"type": "object"}}
            }
        },
        "store.SnapshotRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "session_id": {"type": "string"},
                "hash": {"type": "string"},
                "created_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "primeseek API",
	Description:      "Interactive documentation for the primeseek session API surface.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
