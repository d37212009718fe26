package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ho-ssain/HkToDoServer/internal/domain/entity"
)

func taskList(t *testing.T, r *gin.Engine, cookie *http.Cookie) []entity.Task {
	t.Helper()
	w, env := doJSON(t, r, http.MethodGet, "/api/v1/me", nil, []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)

	var user struct {
		Tasks []entity.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(env.User, &user))
	return user.Tasks
}

func TestTaskLifecycle(t *testing.T) {
	r, _ := newTestEnv(t)
	w, _ := doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")
	cookie := tokenCookie(t, w)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/newtask",
		gin.H{"title": "groceries", "description": "milk and eggs"}, []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Task added successfully", env.Message)

	tasks := taskList(t, r, cookie)
	require.Len(t, tasks, 1)
	require.Equal(t, "groceries", tasks[0].Title)
	require.False(t, tasks[0].Completed)
	id := tasks[0].ID.Hex()

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/task/"+id, nil, []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Task updated successfully", env.Message)
	require.True(t, taskList(t, r, cookie)[0].Completed)

	w, env = doJSON(t, r, http.MethodDelete, "/api/v1/task/"+id, nil, []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Task removed successfully", env.Message)
	require.Empty(t, taskList(t, r, cookie))
}

func TestAddTaskMissingFields(t *testing.T) {
	r, _ := newTestEnv(t)
	w, _ := doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")
	cookie := tokenCookie(t, w)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/newtask", gin.H{"title": "groceries"}, []*http.Cookie{cookie})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Please enter all fields", env.Message)
}

func TestTaskUnknownID(t *testing.T) {
	r, _ := newTestEnv(t)
	w, _ := doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")
	cookie := tokenCookie(t, w)
	unknown := primitive.NewObjectID().Hex()

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/task/"+unknown, nil, []*http.Cookie{cookie})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Task not found", env.Message)

	w, env = doJSON(t, r, http.MethodDelete, "/api/v1/task/"+unknown, nil, []*http.Cookie{cookie})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Task not found", env.Message)
}

func TestTaskInvalidID(t *testing.T) {
	r, _ := newTestEnv(t)
	w, _ := doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")
	cookie := tokenCookie(t, w)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/task/not-an-id", nil, []*http.Cookie{cookie})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid task id", env.Message)
}

func TestTaskRequiresAuth(t *testing.T) {
	r, _ := newTestEnv(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/newtask",
		gin.H{"title": "groceries", "description": "milk and eggs"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
