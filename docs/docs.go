// Package docs registra la especificación OpenAPI que sirve /swagger.
// Se regenera con: swag init -g cmd/api/main.go -o docs
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Registrar usuario", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Iniciar sesión", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Cerrar sesión", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}, "401": {"description": "Unauthorized"}}}},
        "/pets": {
            "get": {"tags": ["pets"], "summary": "Listar mascotas", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "post": {"tags": ["pets"], "summary": "Crear mascota", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/pets/{petID}": {
            "get": {"tags": ["pets"], "summary": "Detalle de mascota", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["pets"], "summary": "Editar mascota", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["pets"], "summary": "Eliminar mascota", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/vaccines": {
            "get": {"tags": ["vaccines"], "summary": "Listar vacunas", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["vaccines"], "summary": "Registrar vacuna", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/vaccines/pet/{petID}": {
            "get": {"tags": ["vaccines"], "summary": "Vacunas de una mascota", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/vaccines/{vaccineID}": {
            "get": {"tags": ["vaccines"], "summary": "Detalle de vacuna", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "vaccineID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["vaccines"], "summary": "Editar vacuna", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "vaccineID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["vaccines"], "summary": "Eliminar vacuna", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "vaccineID", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/users": {"get": {"tags": ["users"], "summary": "Listar usuarios", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/users/me": {
            "get": {"tags": ["users"], "summary": "Mi perfil", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "patch": {"tags": ["users"], "summary": "Editar mi perfil", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/users/permissions": {"get": {"tags": ["users"], "summary": "Permisos y menú por rol", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "role", "in": "query"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/users/{userID}": {
            "get": {"tags": ["users"], "summary": "Detalle de usuario", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["users"], "summary": "Cambiar rol o estado de un usuario", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Care API",
	Description:      "Usuarios, mascotas y vacunas con control de acceso por rol (USER, VET, ADMIN).",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
