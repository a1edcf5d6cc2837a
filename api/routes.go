package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /v1/auth/register", app.registerHandler)
	mux.HandleFunc("POST /v1/auth/login", app.loginHandler)
	mux.HandleFunc("POST /v1/auth/refresh", app.refreshHandler)

	mux.HandleFunc("GET /v1/users/{id}/tasks", app.requireAuthenticatedUser(app.listTasksHandler))
	mux.HandleFunc("POST /v1/users/{id}/tasks", app.requireAuthenticatedUser(app.createTaskHandler))
	mux.HandleFunc("GET /v1/users/{id}/tasks/{taskID}", app.requireAuthenticatedUser(app.getTaskHandler))
	mux.HandleFunc("PUT /v1/users/{id}/tasks/{taskID}", app.requireAuthenticatedUser(app.updateTaskHandler))
	mux.HandleFunc("DELETE /v1/users/{id}/tasks/{taskID}", app.requireAuthenticatedUser(app.deleteTaskHandler))
	mux.HandleFunc("PATCH /v1/users/{id}/tasks/{taskID}/complete", app.requireAuthenticatedUser(app.completeTaskHandler))

	var handler http.Handler = mux
	if app.config.limiter.enabled {
		handler = app.rateLimit(handler)
	}
	return app.enableCORS(handler)
}
