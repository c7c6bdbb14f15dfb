// Package docs holds the OpenAPI description served under /swagger.
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
        "/recommendations": {
            "post": {
                "description": "Samples zones, retrieves POIs similar to the profile in each one and returns at most three per zone with distinct categories.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Recommendations"],
                "summary": "Recommend POIs for a profile",
                "parameters": [
                    {
                        "description": "Tourist profile",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.RecommendationRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Recommendation", "schema": {"$ref": "#/definitions/types.Recommendation"}},
                    "400": {"description": "Invalid Input", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}},
                    "502": {"description": "Retrieval Failed", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/zones": {
            "get": {
                "description": "Lists the configured zones and their sampling weights.",
                "produces": ["application/json"],
                "tags": ["Recommendations"],
                "summary": "List zones",
                "responses": {
                    "200": {"description": "Zones", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.Zone"}}}
                }
            }
        },
        "/pois/search": {
            "get": {
                "description": "Runs a similarity search for a free text query inside one zone.",
                "produces": ["application/json"],
                "tags": ["POIs"],
                "summary": "Search POIs in a zone",
                "parameters": [
                    {"type": "string", "description": "Query text", "name": "q", "in": "query", "required": true},
                    {"type": "string", "description": "Zone name", "name": "zone", "in": "query", "required": true},
                    {"type": "integer", "description": "Maximum results (1-50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Candidates", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.POICandidate"}}},
                    "400": {"description": "Invalid Input", "schema": {"$ref": "#/definitions/types.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/pois/stats": {
            "get": {
                "description": "Reports how many POIs are indexed, in total and per zone.",
                "produces": ["application/json"],
                "tags": ["POIs"],
                "summary": "Index statistics",
                "responses": {
                    "200": {"description": "Stats", "schema": {"$ref": "#/definitions/poi.IndexStats"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        }
    },
    "definitions": {
        "types.RecommendationRequest": {
            "type": "object",
            "properties": {"profile": {"type": "string"}}
        },
        "types.Zone": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "weight": {"type": "number"}}
        },
        "types.POICandidate": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "document": {"type": "string"},
                "distance": {"type": "number"},
                "zone": {"type": "string"},
                "categories": {"type": "string"},
                "address": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "name": {"type": "string"},
                "price_tier": {"type": "string"},
                "bayesian_rating": {"type": "number"}
            }
        },
        "types.RankedPOI": {
            "allOf": [
                {"$ref": "#/definitions/types.POICandidate"},
                {
                    "type": "object",
                    "properties": {
                        "final_category": {"type": "string"},
                        "retrieval_rank": {"type": "integer"}
                    }
                }
            ]
        },
        "types.Recommendation": {
            "type": "object",
            "properties": {
                "profile": {"type": "string"},
                "zones": {"type": "array", "items": {"type": "string"}},
                "pois": {"type": "array", "items": {"$ref": "#/definitions/types.RankedPOI"}}
            }
        },
        "types.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "poi.IndexStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "zones": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "GoVibes Recommender API",
	Description:      "Profile driven POI recommendations for Medellín.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
