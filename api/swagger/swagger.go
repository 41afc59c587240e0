package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Core Registrar API",
        "description": "Course catalog, registration, and transcript service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Catalog", "description": "Courses, prerequisites, program plans"},
        {"name": "Sections", "description": "Section offerings"},
        {"name": "Registrations", "description": "Registration and withdrawal"},
        {"name": "Students", "description": "Student-facing views and exports"},
        {"name": "Transcripts", "description": "Grading"},
        {"name": "Users", "description": "Account management"},
        {"name": "Settings", "description": "Registration window"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate by user id or email",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Account pending approval"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current account info",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List catalog courses",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create a course",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Course code already exists"}
                }
            }
        },
        "/courses/{code}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get one course",
                "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Catalog"],
                "summary": "Update a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/courses/{code}/prerequisites": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List a course's prerequisites",
                "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Add a prerequisite",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "A course cannot require itself"}
                }
            }
        },
        "/plans": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List program plan courses",
                "parameters": [{"name": "program", "in": "query", "type": "string", "enum": ["PWM", "BIO", "COMM", "COMP"]}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Assign a course to a program plan",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections",
                "parameters": [
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Open a new section",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get one section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Sections"],
                "summary": "Update section fields",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete a section",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List registrations",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Register for a section",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Registration window closed"},
                    "409": {"description": "Section closed, full, duplicate, or time conflict"}
                }
            }
        },
        "/registrations/{course}": {
            "delete": {
                "tags": ["Registrations"],
                "summary": "Withdraw from a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "course", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Registration not found"}
                }
            }
        },
        "/registrations/conflict": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Screen a section against the student's schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "section_id", "in": "query", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/available-courses": {
            "get": {
                "tags": ["Students"],
                "summary": "List courses the student can register for",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/schedule": {
            "get": {
                "tags": ["Students"],
                "summary": "List the student's registered sections",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/transcript": {
            "get": {
                "tags": ["Students"],
                "summary": "Get the student's transcript",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/transcript/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Download the transcript as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/students/{id}/schedule/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Download the weekly schedule as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/transcripts/finalize": {
            "post": {
                "tags": ["Transcripts"],
                "summary": "Record a grade and retire the registration",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create an account",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/users/inactive": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts pending approval",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Remove every pending account",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/users/inactive/approve": {
            "post": {
                "tags": ["Users"],
                "summary": "Approve every pending account",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/settings/registration": {
            "get": {
                "tags": ["Settings"],
                "summary": "Report whether registration is open",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Open or close the registration window",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Dependency unavailable"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "login": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
