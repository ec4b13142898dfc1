package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidstack/sidmemo-server/internal/model"
)

func TestClient_Add(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/collections/mem0_acme/memories", r.URL.Path)
		assert.Equal(t, "Bearer enginekey", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "likes go", body["content"])
		assert.Equal(t, "alice", body["user_id"])

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"id":      id,
				"memory":  "likes go",
				"user_id": "alice",
			}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "enginekey", time.Second)
	records, err := c.Add(context.Background(), "mem0_acme", model.MemoryAddRequest{
		Content: "likes go",
		UserKey: "alice",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "likes go", records[0].Content)
}

func TestClient_GetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Get(context.Background(), "mem0_acme", uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/collections/mem0_acme/search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": uuid.New(), "memory": "m1", "user_id": "alice", "score": 0.91},
				{"id": uuid.New(), "memory": "m2", "user_id": "alice", "score": 0.42},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	results, err := c.Search(context.Background(), "mem0_acme", "go", "alice", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0.91, results[0].Score)
}

func TestClient_DeleteAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "alice", r.URL.Query().Get("user_id"))
		json.NewEncoder(w).Encode(map[string]int{"deleted": 3})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	deleted, err := c.DeleteAll(context.Background(), "mem0_acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}

func TestClient_EngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream llm unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
