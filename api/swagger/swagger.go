package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Olympiad Admin API",
        "description": "Bulk provisioning of olympiad student and sales accounts from CSV rosters",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Provisioning", "description": "Roster upload and credential files"},
        {"name": "Export", "description": "Account exports and filter options"}
    ],
    "paths": {
        "/register-students": {
            "post": {
                "tags": ["Provisioning"],
                "summary": "Bulk register students from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "schoolId", "in": "formData", "type": "string", "description": "Default school ID for rows without one"}
                ],
                "responses": {
                    "200": {"description": "Batch processed", "schema": {"$ref": "#/definitions/BatchResponse"}},
                    "400": {"description": "Missing file, malformed CSV or no valid rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Not a CSV file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too many concurrent uploads", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Batch aborted; meta carries processed rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/register-sales": {
            "post": {
                "tags": ["Provisioning"],
                "summary": "Bulk register sales agents from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "Batch processed", "schema": {"$ref": "#/definitions/BatchResponse"}},
                    "400": {"description": "Invalid upload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/download-logins/list": {
            "get": {
                "tags": ["Provisioning"],
                "summary": "List generated credential files, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginFileList"}}
                }
            }
        },
        "/download-logins/{filename}": {
            "get": {
                "tags": ["Provisioning"],
                "summary": "Download a credential file",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "filename", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File contents", "schema": {"type": "file"}},
                    "404": {"description": "Unknown file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generate-csv": {
            "get": {
                "tags": ["Export"],
                "summary": "Export accounts as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "usertype", "in": "query", "type": "string", "enum": ["student", "sales"]},
                    {"name": "schoolname", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV export", "schema": {"type": "file"}},
                    "400": {"description": "Unknown user type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No users found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student-filters": {
            "get": {
                "tags": ["Export"],
                "summary": "Distinct school names and user types",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentFilterOptions"}}
                }
            }
        }
    },
    "definitions": {
        "RowResult": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "status": {"type": "string", "enum": ["success", "duplicate", "failed"]},
                "data": {"type": "object"},
                "userId": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "BatchResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "total": {"type": "integer"},
                "successCount": {"type": "integer"},
                "duplicateCount": {"type": "integer"},
                "errorCount": {"type": "integer"},
                "warningCount": {"type": "integer"},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "downloadUrl": {"type": "string"},
                "processedStudents": {"type": "array", "items": {"$ref": "#/definitions/RowResult"}}
            }
        },
        "LoginFile": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "created": {"type": "string", "format": "date-time"}
            }
        },
        "LoginFileList": {
            "type": "object",
            "properties": {
                "files": {"type": "array", "items": {"$ref": "#/definitions/LoginFile"}}
            }
        },
        "StudentFilterOptions": {
            "type": "object",
            "properties": {
                "schools": {"type": "array", "items": {"type": "string"}},
                "userTypes": {"type": "array", "items": {"type": "string"}}
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
