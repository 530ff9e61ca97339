package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach_server/server/coachman/domain"
)

func TestAIClientConfigured(t *testing.T) {
	assert.False(t, NewAIClient("", time.Second).Configured())
	assert.False(t, NewAIClient("   ", time.Second).Configured())
	assert.True(t, NewAIClient("http://ai.test/analyze", time.Second).Configured())
}

func TestRequestFeedbackSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			VideoURL string `json:"videoUrl"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://storage.test/signed/user_u1/1.mp4", req.VideoURL)

		json.NewEncoder(w).Encode(map[string]string{"feedback": "Great pacing, reduce filler words."})
	}))
	defer srv.Close()

	client := NewAIClient(srv.URL, 5*time.Second)
	feedback, err := client.RequestFeedback(context.Background(), "https://storage.test/signed/user_u1/1.mp4")
	require.NoError(t, err)
	assert.Equal(t, "Great pacing, reduce filler words.", feedback)
}

func TestRequestFeedbackServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewAIClient(srv.URL, 5*time.Second).RequestFeedback(context.Background(), "https://signed")
	assert.ErrorIs(t, err, domain.ErrAIService)
}

func TestRequestFeedbackMissingFeedbackField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewAIClient(srv.URL, 5*time.Second).RequestFeedback(context.Background(), "https://signed")
	assert.ErrorIs(t, err, domain.ErrAIMalformed)
}

func TestRequestFeedbackNotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := NewAIClient(srv.URL, 5*time.Second).RequestFeedback(context.Background(), "https://signed")
	assert.ErrorIs(t, err, domain.ErrAIMalformed)
}

func TestRequestFeedbackUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewAIClient(srv.URL, time.Second).RequestFeedback(context.Background(), "https://signed")
	assert.ErrorIs(t, err, domain.ErrAIUnreachable)
}
