package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSuccess(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "cmpl-1",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": "Dear customer, we are on it."},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "", 0)
	c.SetBaseURL(srv.URL)

	out, err := c.Generate(context.Background(), "system instruction", "customer message")
	require.NoError(t, err)
	require.Equal(t, "Dear customer, we are on it.", out)

	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, "open-mixtral-8x22b", gotReq.Model)
	require.Equal(t, 2000, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Equal(t, "system instruction", gotReq.Messages[0].Content)
	require.Equal(t, "user", gotReq.Messages[1].Role)
	require.Equal(t, "customer message", gotReq.Messages[1].Content)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key", "type": "authentication_error"},
		})
	}))
	defer srv.Close()

	c := NewClient("bad-key", "", 0)
	c.SetBaseURL(srv.URL)

	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid api key")
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "cmpl-2", "choices": []interface{}{}})
	}))
	defer srv.Close()

	c := NewClient("test-key", "", 0)
	c.SetBaseURL(srv.URL)

	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no completion")
}

func TestGenerateEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "cmpl-3",
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "   "}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "", 0)
	c.SetBaseURL(srv.URL)

	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty completion")
}

func TestGenerateMissingAPIKey(t *testing.T) {
	c := NewClient("", "", 0)
	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	require.Contains(t, err.Error(), "API key not configured")
}
