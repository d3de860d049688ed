package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>coedit API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the HTTP surface. The websocket
// protocol at /ws is not part of this document.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "coedit", "version": "v0.1.0" },
  "paths": {
    "/auth/register": {
      "post": { "summary": "Create an account", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "201": { "description": "account created, tokens returned" }, "409": { "description": "username or email taken" } } }
    },
    "/auth/login": {
      "post": { "summary": "Password login", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "bad credentials" } } }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout and invalidate refresh token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/documents": {
      "get": { "summary": "List documents visible to the caller", "responses": { "200": { "description": "document listing" } } },
      "post": { "summary": "Create a document", "responses": { "201": { "description": "document created" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Fetch a document", "responses": { "200": { "description": "document" }, "403": { "description": "no read access" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update title or content", "responses": { "200": { "description": "updated document" }, "403": { "description": "no write access" } } },
      "delete": { "summary": "Delete a document (owner only)", "responses": { "204": { "description": "deleted" }, "403": { "description": "not the owner" } } }
    },
    "/api/documents/{id}/collaborators": {
      "get": { "summary": "List collaborators", "responses": { "200": { "description": "collaborator listing" } } },
      "post": { "summary": "Share with a user (owner only)", "responses": { "201": { "description": "collaborator added" }, "409": { "description": "already a collaborator" } } }
    },
    "/api/users": { "get": { "summary": "User directory", "responses": { "200": { "description": "users" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
