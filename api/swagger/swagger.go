package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Clearance Portal API",
        "description": "Final-year clearance workflow: ordered office approvals unlocking the NYSC form and ID card.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login, refresh, logout"},
        {"name": "Clearance", "description": "Submissions, decisions, and student progress"},
        {"name": "Offices", "description": "The static office registry"},
        {"name": "Oversight", "description": "Cross-office read-only queries"},
        {"name": "Notifications", "description": "In-app notification feed"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rotated token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Session revoked"}
                }
            }
        },
        "/clearance/submissions": {
            "post": {
                "tags": ["Clearance"],
                "summary": "Submit clearance documents to one office",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Submission created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Out of sequence or duplicate pending submission"}
                }
            },
            "get": {
                "tags": ["Oversight"],
                "summary": "Cross-office submission listing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "include_history", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Oversight role required"}
                }
            }
        },
        "/clearance/submissions/{id}/approve": {
            "post": {
                "tags": ["Clearance"],
                "summary": "Approve a pending submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Different office or out of scope"},
                    "409": {"description": "Already actioned"}
                }
            }
        },
        "/clearance/submissions/{id}/reject": {
            "post": {
                "tags": ["Clearance"],
                "summary": "Reject a pending submission with a reason",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing rejection reason"},
                    "409": {"description": "Already actioned"}
                }
            }
        },
        "/clearance/status": {
            "get": {
                "tags": ["Clearance"],
                "summary": "Caller's per-office clearance progress",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clearance/nysc-form": {
            "get": {
                "tags": ["Clearance"],
                "summary": "Access the NYSC form after completion",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Form available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Clearance not completed"}
                }
            }
        },
        "/clearance/offices/{officeID}/pending": {
            "get": {
                "tags": ["Clearance"],
                "summary": "Pending queue for an office",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "officeID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not assigned to this office"}
                }
            }
        },
        "/clearance/offices/{officeID}/submissions": {
            "get": {
                "tags": ["Clearance"],
                "summary": "Full submission view for an office",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "officeID", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "include_history", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clearance/offices/{officeID}/statistics": {
            "get": {
                "tags": ["Clearance"],
                "summary": "Aggregate counts for an office",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "officeID", "in": "path", "required": true, "type": "string"},
                    {"name": "department_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OfficeStatistics"}}
                }
            }
        },
        "/clearance/requests": {
            "get": {
                "tags": ["Oversight"],
                "summary": "Cross-office clearance request listing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Oversight role required"}
                }
            }
        },
        "/clearance/requests/export": {
            "get": {
                "tags": ["Oversight"],
                "summary": "Export all clearance requests as CSV",
                "produces": ["text/csv"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "CSV attachment"},
                    "403": {"description": "Oversight role required"}
                }
            }
        },
        "/clearance/documents": {
            "post": {
                "tags": ["Clearance"],
                "summary": "Upload a supporting document",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unsupported file type or size"}
                }
            }
        },
        "/clearance/documents/{token}": {
            "get": {
                "tags": ["Clearance"],
                "summary": "Download a document via its signed link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "401": {"description": "Invalid or expired link"}
                }
            }
        },
        "/clearance/dashboard": {
            "get": {
                "tags": ["Oversight"],
                "summary": "Oversight dashboard roll-up",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Oversight role required"}
                }
            }
        },
        "/offices": {
            "get": {
                "tags": ["Offices"],
                "summary": "List clearance offices in step order",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/offices/{id}": {
            "get": {
                "tags": ["Offices"],
                "summary": "Fetch one clearance office",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown office"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Caller's notification feed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "unread", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification read",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Marked read"},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "CreateSubmissionRequest": {
            "type": "object",
            "required": ["office_id", "documents"],
            "properties": {
                "office_id": {"type": "string"},
                "documents": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/DocumentPayload"}
                }
            }
        },
        "DocumentPayload": {
            "type": "object",
            "required": ["file_name", "file_url", "file_type"],
            "properties": {
                "file_name": {"type": "string"},
                "file_url": {"type": "string"},
                "file_type": {"type": "string"}
            }
        },
        "DecisionRequest": {
            "type": "object",
            "properties": {
                "comment": {"type": "string"}
            }
        },
        "RejectionRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "OfficeStatistics": {
            "type": "object",
            "properties": {
                "office_id": {"type": "string"},
                "total": {"type": "integer"},
                "pending": {"type": "integer"},
                "approved": {"type": "integer"},
                "rejected": {"type": "integer"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
