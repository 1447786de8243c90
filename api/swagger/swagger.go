package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Atelier Planner API",
        "description": "Workshop planning, validation and optimization service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and account management"},
        {"name": "Planning", "description": "Rule validation, conflicts, slots, optimization and scenarios"},
        {"name": "Workshops", "description": "Workshop lifecycle"},
        {"name": "Team", "description": "People and assignments"},
        {"name": "Availability", "description": "Per-person availability windows"},
        {"name": "Catalog", "description": "Locations and workshop types"},
        {"name": "Settings", "description": "Planning rule tunables"},
        {"name": "Analytics", "description": "Capacity, revenue and target reports"},
        {"name": "Reports", "description": "Asynchronous CSV/PDF exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Database unreachable"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {"200": {"description": "Access token issued"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "responses": {"200": {"description": "User info"}}
            }
        },
        "/planning/validate/workshop": {
            "post": {
                "tags": ["Planning"],
                "summary": "Validate a candidate workshop",
                "responses": {"200": {"description": "Validation result with errors and warnings"}}
            }
        },
        "/planning/validate/assignment": {
            "post": {
                "tags": ["Planning"],
                "summary": "Validate a candidate assignment",
                "responses": {"200": {"description": "Validation result with errors and warnings"}}
            }
        },
        "/planning/validate/period": {
            "get": {
                "tags": ["Planning"],
                "summary": "Validate all workshops in a period",
                "responses": {"200": {"description": "Aggregated validation result"}}
            }
        },
        "/planning/conflicts": {
            "get": {
                "tags": ["Planning"],
                "summary": "Scan a period for conflicts",
                "responses": {"200": {"description": "List of detected conflicts"}}
            }
        },
        "/planning/slots": {
            "get": {
                "tags": ["Planning"],
                "summary": "Find and rank available slots",
                "responses": {"200": {"description": "Ranked open slots"}}
            }
        },
        "/planning/optimize": {
            "post": {
                "tags": ["Planning"],
                "summary": "Generate an optimal schedule",
                "responses": {"200": {"description": "Proposed plan"}, "503": {"description": "Solver timed out"}}
            }
        },
        "/planning/scenario": {
            "post": {
                "tags": ["Planning"],
                "summary": "Analyze a what-if scenario",
                "responses": {"200": {"description": "Revenue impact estimate"}}
            }
        },
        "/workshops": {
            "get": {
                "tags": ["Workshops"],
                "summary": "List workshops",
                "responses": {"200": {"description": "Paginated workshops"}}
            },
            "post": {
                "tags": ["Workshops"],
                "summary": "Plan a workshop",
                "responses": {"201": {"description": "Created"}, "422": {"description": "Planning rules violated"}}
            }
        },
        "/workshops/{id}": {
            "get": {
                "tags": ["Workshops"],
                "summary": "Workshop detail",
                "responses": {"200": {"description": "Workshop with sessions and assignments"}}
            },
            "put": {
                "tags": ["Workshops"],
                "summary": "Update a workshop",
                "responses": {"200": {"description": "Updated"}, "409": {"description": "Workshop is terminal"}}
            },
            "delete": {
                "tags": ["Workshops"],
                "summary": "Cancel a workshop",
                "responses": {"204": {"description": "Cancelled"}}
            }
        },
        "/people": {
            "get": {
                "tags": ["Team"],
                "summary": "List people",
                "responses": {"200": {"description": "Paginated people"}}
            },
            "post": {
                "tags": ["Team"],
                "summary": "Register a person",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Team"],
                "summary": "Assign a person to a workshop",
                "responses": {"201": {"description": "Created"}, "422": {"description": "Planning rules violated"}}
            }
        },
        "/availabilities": {
            "post": {
                "tags": ["Availability"],
                "summary": "Record an availability window",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/locations": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List locations",
                "responses": {"200": {"description": "Paginated locations"}}
            }
        },
        "/workshop-types": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List workshop types",
                "responses": {"200": {"description": "Paginated workshop types"}}
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "List settings",
                "responses": {"200": {"description": "All settings"}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Create or replace a setting",
                "responses": {"200": {"description": "Stored setting"}}
            }
        },
        "/analytics/capacity": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Instructor capacity report",
                "responses": {"200": {"description": "Per-instructor utilization"}}
            }
        },
        "/analytics/revenue": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Revenue forecast",
                "responses": {"200": {"description": "Expected revenue by type and location"}}
            }
        },
        "/analytics/targets": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Yearly target progress",
                "responses": {"200": {"description": "Progress per workshop type"}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report export",
                "responses": {"202": {"description": "Job accepted"}}
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "responses": {"200": {"description": "Progress and download link"}}
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export",
                "responses": {"200": {"description": "Export file"}, "410": {"description": "Link expired"}}
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
