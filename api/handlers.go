package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
)

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	healthCheck := struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}{
		Status:      "available",
		Environment: app.config.env,
		Version:     version,
	}
	writeJSON(w, http.StatusOK, healthCheck)
}

func (app *application) registerHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	u, token, err := app.auth.register(r.Context(), input.Email, input.Password, clientKey(r))
	if err != nil {
		app.writeFailure(w, err)
		return
	}
	if app.mailer != nil {
		go func() {
			if err := app.mailer.sendWelcome(u.Email); err != nil {
				log.Println(err)
			}
		}()
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  u,
		"token": token,
	})
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	u, access, refresh, err := app.auth.login(r.Context(), input.Email, input.Password, clientKey(r))
	if err != nil {
		app.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":          u,
		"token":         access,
		"refresh_token": refresh,
	})
}

func (app *application) refreshHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	u, access, err := app.auth.refresh(r.Context(), input.RefreshToken)
	if err != nil {
		app.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  u,
		"token": access,
	})
}

// authorizeOwner checks that the authenticated user owns the {id} path
// segment. Ownership is the sole authorization boundary: no task is visible
// or mutable by anyone but its owner.
func (app *application) authorizeOwner(w http.ResponseWriter, r *http.Request) (*user, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.New("invalid user id"), http.StatusBadRequest)
		return nil, false
	}
	u := getUserFromRequest(r)
	if u == nil || u.ID != id {
		app.writeFailure(w, errForbidden)
		return nil, false
	}
	return u, true
}

func (app *application) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := app.authorizeOwner(w, r)
	if !ok {
		return
	}
	var completed *bool
	if v := r.URL.Query().Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, errors.New("completed must be a boolean"), http.StatusBadRequest)
			return
		}
		completed = &b
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, errors.New("limit must be an integer between 1 and 100"), http.StatusBadRequest)
			return
		}
		limit = n
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, errors.New("offset must be a non-negative integer"), http.StatusBadRequest)
			return
		}
		offset = n
	}
	tasks, err := app.storage.getTasks(r.Context(), u.ID, completed, limit, offset)
	if err != nil {
		app.writeFailure(w, err)
		return
	}
	total, err := app.storage.countTasks(r.Context(), u.ID, completed)
	if err != nil {
		app.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":  tasks,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := app.authorizeOwner(w, r)
	if !ok {
		return
	}
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Completed   bool   `json:"completed"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if err := checkTaskInput(input.Title, input.Description); err != nil {
		app.writeFailure(w, err)
		return
	}
	t := &task{
		UserID:      u.ID,
		Title:       input.Title,
		Description: input.Description,
		IsCompleted: input.Completed,
	}
	if err := app.storage.insertTask(r.Context(), t); err != nil {
		app.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (app *application) taskFromRequest(w http.ResponseWriter, r *http.Request, u *user) (*task, bool) {
	taskID, err := strconv.Atoi(r.PathValue("taskID"))
	if err != nil {
		writeError(w, errors.New("invalid task id"), http.StatusBadRequest)
		return nil, false
	}
	t, err := app.storage.getTask(r.Context(), taskID, u.ID)
	if err != nil {
		app.writeFailure(w, err)
		return nil, false
	}
	if t == nil {
		app.writeFailure(w, errTaskNotFound)
		return nil, false
	}
	return t, true
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := app.authorizeOwner(w, r)
	if !ok {
		return
	}
	t, ok := app.taskFromRequest(w, r, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := app.authorizeOwner(w, r)
	if !ok {
		return
	}
	t, ok := app.taskFromRequest(w, r, u)
	if !ok {
		return
	}
	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if input.Title != nil {
		t.Title = *input.Title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Completed != nil {
		t.IsCompleted = *input.Completed
	}
	if err := checkTaskInput(t.Title, t.Description); err != nil {
		app.writeFailure(w, err)
		return
	}
	if err := app.storage.updateTask(r.Context(), t); err != nil {
		app.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := app.authorizeOwner(w, r)
	if !ok {
		return
	}
	taskID, err := strconv.Atoi(r.PathValue("taskID"))
	if err != nil {
		writeError(w, errors.New("invalid task id"), http.StatusBadRequest)
		return
	}
	deleted, err := app.storage.deleteTask(r.Context(), taskID, u.ID)
	if err != nil {
		app.writeFailure(w, err)
		return
	}
	if !deleted {
		app.writeFailure(w, errTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted successfully"})
}

func (app *application) completeTaskHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := app.authorizeOwner(w, r)
	if !ok {
		return
	}
	completed, err := strconv.ParseBool(r.URL.Query().Get("completed"))
	if err != nil {
		writeError(w, errors.New("completed must be a boolean"), http.StatusBadRequest)
		return
	}
	t, ok := app.taskFromRequest(w, r, u)
	if !ok {
		return
	}
	t.IsCompleted = completed
	if err := app.storage.updateTask(r.Context(), t); err != nil {
		app.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errInvalidInput), errors.Is(err, errWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, errInvalidCredentials),
		errors.Is(err, errInvalidToken),
		errors.Is(err, errTokenExpired),
		errors.Is(err, errUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, errDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, errTaskNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure maps a flow error onto its HTTP status. Errors outside the
// sentinel taxonomy are logged and surfaced as a bare 500 so storage faults
// are never dressed up as credential problems.
func (app *application) writeFailure(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Println(err)
		writeError(w, errors.New("internal server error"), status)
		return
	}
	writeError(w, err, status)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func composeJSONError(err error) string {
	jsonError := map[string]string{
		"error": err.Error(),
	}
	result, err := json.Marshal(jsonError)
	if err != nil {
		log.Println(err)
		return ""
	}
	return string(result)
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	fmt.Fprintln(w, composeJSONError(err))
}
