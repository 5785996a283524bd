package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"webstore-be/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(Replace(zap.New(core)))
	return logs
}

func TestNew(t *testing.T) {
	tests := []struct {
		env, level string
		enabled    zapcore.Level
		disabled   zapcore.Level
	}{
		{"production", "", zapcore.InfoLevel, zapcore.DebugLevel},
		{"production", "warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"development", "", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"development", "error", zapcore.ErrorLevel, zapcore.WarnLevel},
		{"test", "shouting", zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			l, err := New(tt.env, tt.level)
			require.NoError(t, err)

			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.disabled))
		})
	}
}

func TestL_InitializesLazily(t *testing.T) {
	t.Cleanup(Replace(nil))
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "")

	assert.NotNil(t, L())
	assert.NotPanics(t, Sync)
}

func TestFromCtx(t *testing.T) {
	logs := observe(t)
	userID := uuid.New()

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = utils.SetUserContext(ctx, userID, "kund@example.se", utils.RoleUser)

	FromCtx(ctx).Info("order placed")
	FromCtx(context.Background()).Info("bare")

	entries := logs.TakeAll()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.Equal(t, userID.String(), entries[0].ContextMap()["user_id"])
	assert.Empty(t, entries[1].Context)
	assert.Equal(t, "", RequestIDFrom(context.Background()))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"mints when missing", "", false},
		{"keeps caller id", "checkout-7f1c", true},
		{"replaces oversized id", strings.Repeat("a", maxRequestIDLen+1), false},
		{"replaces id with spaces", "two words", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			assert.Equal(t, seen, got)
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		level  zapcore.Level
	}{
		{"implicit ok", 0, `{"success":true}`, zapcore.InfoLevel},
		{"created", http.StatusCreated, "", zapcore.InfoLevel},
		{"not found", http.StatusNotFound, "", zapcore.WarnLevel},
		{"server error", http.StatusInternalServerError, "boom", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t)
			handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				_, _ = w.Write([]byte(tt.body))
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/orders", nil))

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			fields := entries[0].ContextMap()
			want := tt.status
			if want == 0 {
				want = http.StatusOK
			}
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, "/api/orders", fields["path"])
			assert.Equal(t, int64(want), fields["status"])
			assert.Equal(t, int64(len(tt.body)), fields["bytes"])
		})
	}
}
