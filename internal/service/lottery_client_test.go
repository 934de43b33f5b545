package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"canvass-data/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLotteryClientSendCode(t *testing.T) {
	var calls int32
	var gotBody string
	var gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewLotteryClient(config.LotteryConfig{
		URL:     srv.URL,
		Timeout: 2 * time.Second,
	}, zap.NewNop())

	result := client.SendCode(context.Background(), "89991234567", "42", true)
	require.True(t, result.OK, result.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"phone":"9991234567","code":"42","voting_at_home":true}`, gotBody)
}

func TestLotteryClientEmptyCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"phone":"9991234567","code":"","voting_at_home":false}`, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewLotteryClient(config.LotteryConfig{URL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
	result := client.SendCode(context.Background(), "+7 (999) 123-45-67", "", false)
	require.True(t, result.OK, result.Message)
}

func TestLotteryClientInvalidPhoneSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := NewLotteryClient(config.LotteryConfig{URL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
	result := client.SendCode(context.Background(), "12345", "42", true)
	assert.False(t, result.OK)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no request for unnormalizable phone")
}

func TestLotteryClientRejectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewLotteryClient(config.LotteryConfig{URL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
	result := client.SendCode(context.Background(), "89991234567", "42", false)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "HTTP 400")
}

func TestLotteryClientTransportError(t *testing.T) {
	client := NewLotteryClient(config.LotteryConfig{
		URL:     "http://127.0.0.1:1", // nothing listens there
		Timeout: time.Second,
	}, zap.NewNop())
	result := client.SendCode(context.Background(), "89991234567", "1", true)
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Message)
}
