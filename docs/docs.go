// Package docs holds the swagger spec served at /swagger. Regenerate with
// `swag init -g internal/api/server.go` after changing handler annotations.
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
        "/register": {
            "post": {
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a school",
                "parameters": [
                    {"type": "string", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "name": "confirmpassword", "in": "formData", "required": true},
                    {"type": "string", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "name": "description", "in": "formData", "required": true},
                    {"type": "string", "name": "phone", "in": "formData", "required": true},
                    {"type": "string", "name": "address", "in": "formData", "required": true},
                    {"type": "file", "description": "School image (jpeg/png/webp, max 5MB)", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.APISuccessSchool"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.APIError"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in and receive a 7 day bearer token",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.APIError"}}
                }
            }
        },
        "/verifyemail/{token}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Confirm an email address",
                "parameters": [
                    {"type": "string", "description": "Verification token", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIMessage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.APIError"}}
                }
            }
        },
        "/recoveraccount": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Request a password reset link",
                "parameters": [
                    {"description": "Account email", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RecoverAccountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIMessage"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.APIError"}}
                }
            }
        },
        "/resetpassword/{token}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Set a new password with a recovery token",
                "parameters": [
                    {"type": "string", "description": "Recovery token", "name": "token", "in": "path", "required": true},
                    {"description": "New password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ResetPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIMessage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.APIError"}}
                }
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List schools",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APISuccessSchools"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a school by id",
                "parameters": [
                    {"type": "integer", "description": "School id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APISuccessSchool"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.APIError"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Delete a school by id",
                "parameters": [
                    {"type": "integer", "description": "School id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIMessage"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.APIError"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current school",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APISuccessSchool"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "dto.APIError": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "message": {"type": "string", "example": "email is required!"}
            }
        },
        "dto.APIMessage": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "ok"}
            }
        },
        "dto.SchoolDetail": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "image": {"type": "string"},
                "description": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "verified": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "dto.APISuccessSchool": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/dto.SchoolDetail"}
            }
        },
        "dto.APISuccessSchools": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {"type": "array", "items": {"$ref": "#/definitions/dto.SchoolDetail"}}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "dto.LoginUser": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "dto.LoginResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/dto.LoginUser"}
            }
        },
        "dto.RecoverAccountRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"}
            }
        },
        "dto.ResetPasswordRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "confirmPassword": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer <JWT>",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "CBT School Service API",
	Description:      "School registration, email verification, login and password recovery.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
