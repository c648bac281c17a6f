package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus API",
        "description": "School management backend: bulk roster imports and fee lifecycle",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Imports", "description": "Bulk roster imports from CSV/XLSX"},
        {"name": "Fees", "description": "Fee records, payments and arrears"},
        {"name": "Students", "description": "Student roster management"},
        {"name": "Teachers", "description": "Teacher roster management"},
        {"name": "Staff", "description": "Administrative and support staff"},
        {"name": "Notices", "description": "Published announcements"},
        {"name": "Meetings", "description": "Scheduled meetings"},
        {"name": "Attendance", "description": "Daily attendance records"},
        {"name": "Dashboard", "description": "Aggregated headline counts"}
    ],
    "paths": {
        "/imports/students": {
            "post": {
                "tags": ["Imports"],
                "summary": "Bulk import students from a spreadsheet",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true, "description": "CSV or XLSX roster"}
                ],
                "responses": {
                    "200": {"description": "Import result", "schema": {"$ref": "#/definitions/ImportResult"}},
                    "400": {"description": "Invalid file"}
                }
            }
        },
        "/imports/teachers": {
            "post": {
                "tags": ["Imports"],
                "summary": "Bulk import teachers from a spreadsheet",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true, "description": "CSV or XLSX roster"}
                ],
                "responses": {
                    "200": {"description": "Import result", "schema": {"$ref": "#/definitions/ImportResult"}}
                }
            }
        },
        "/imports/admin-staff": {
            "post": {
                "tags": ["Imports"],
                "summary": "Bulk import administrative staff",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "Import result", "schema": {"$ref": "#/definitions/ImportResult"}}
                }
            }
        },
        "/imports/support-staff": {
            "post": {
                "tags": ["Imports"],
                "summary": "Bulk import support staff",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "Import result", "schema": {"$ref": "#/definitions/ImportResult"}}
                }
            }
        },
        "/imports/history": {
            "get": {
                "tags": ["Imports"],
                "summary": "List past import runs",
                "parameters": [
                    {"name": "userType", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Import history", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees": {
            "get": {
                "tags": ["Fees"],
                "summary": "List fee records",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "dueMonth", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Fee records", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Fees"],
                "summary": "Record a fee manually",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/fees/{id}": {
            "get": {
                "tags": ["Fees"],
                "summary": "Get a fee record",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Fee record"}}
            },
            "put": {
                "tags": ["Fees"],
                "summary": "Record a payment or mark a fee as paid",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Updated fee record"}}
            },
            "delete": {
                "tags": ["Fees"],
                "summary": "Delete a fee record",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/fees/{id}/receipt": {
            "get": {
                "tags": ["Fees"],
                "summary": "Download a fee receipt as PDF",
                "produces": ["application/pdf"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "PDF receipt"}}
            }
        },
        "/fees/arrears/{studentId}": {
            "get": {
                "tags": ["Fees"],
                "summary": "Compute a student's carried-forward arrears",
                "parameters": [{"name": "studentId", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Arrears amount"}}
            }
        },
        "/fees/generate": {
            "post": {
                "tags": ["Fees"],
                "summary": "Queue monthly fee generation for all active students",
                "responses": {"202": {"description": "Generation queued"}}
            }
        },
        "/fees/cleanup-orphans": {
            "post": {
                "tags": ["Fees"],
                "summary": "Remove fee records whose student is gone or inactive",
                "responses": {"200": {"description": "Removed count"}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {"200": {"description": "Students", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Student"}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Updated student"}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate student",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/students/{id}/fees": {
            "get": {
                "tags": ["Fees"],
                "summary": "List fee records of one student",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Fees"}}
            }
        },
        "/students/{id}/arrears": {
            "get": {
                "tags": ["Fees"],
                "summary": "Compute a student's carried-forward arrears",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Arrears amount"}}
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "responses": {"200": {"description": "Teachers"}}
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Register a teacher",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get teacher detail",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Teacher"}}
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Update teacher",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Updated teacher"}}
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Deactivate teacher",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/admin-staff": {
            "get": {"tags": ["Staff"], "summary": "List administrative staff", "responses": {"200": {"description": "Staff"}}},
            "post": {"tags": ["Staff"], "summary": "Register an administrative staff member", "responses": {"201": {"description": "Created"}}}
        },
        "/support-staff": {
            "get": {"tags": ["Staff"], "summary": "List support staff", "responses": {"200": {"description": "Staff"}}},
            "post": {"tags": ["Staff"], "summary": "Register a support staff member", "responses": {"201": {"description": "Created"}}}
        },
        "/notices": {
            "get": {"tags": ["Notices"], "summary": "List notices", "responses": {"200": {"description": "Notices"}}},
            "post": {"tags": ["Notices"], "summary": "Publish a notice", "responses": {"201": {"description": "Created"}}}
        },
        "/meetings": {
            "get": {"tags": ["Meetings"], "summary": "List meetings", "responses": {"200": {"description": "Meetings"}}},
            "post": {"tags": ["Meetings"], "summary": "Schedule a meeting", "responses": {"201": {"description": "Created"}}}
        },
        "/attendance": {
            "get": {"tags": ["Attendance"], "summary": "List attendance records", "responses": {"200": {"description": "Attendance"}}},
            "post": {"tags": ["Attendance"], "summary": "Record attendance", "responses": {"200": {"description": "Recorded"}}}
        },
        "/dashboard/summary": {
            "get": {"tags": ["Dashboard"], "summary": "Get the admin dashboard summary", "responses": {"200": {"description": "Summary"}}}
        }
    },
    "definitions": {
        "ImportRowError": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "total_records": {"type": "integer"},
                "success_count": {"type": "integer"},
                "error_count": {"type": "integer"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/ImportRowError"}}
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
