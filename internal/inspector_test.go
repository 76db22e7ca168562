package internal

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-hub/domain"
	"chat-hub/repositories"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestInspector_Redacts_Password_Hashes(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	store, err := repositories.OpenInMemory(log)
	req.NoError(err)
	defer store.Close()
	req.NoError(store.AddUser(domain.User{ID: "u-1", Username: "alice", PasswordHash: "$argon2id$secret"}))

	inspector := NewInspector(store, func() map[string]any {
		return map[string]any{"sessions": 3}
	}, log)

	// When the user prefix is inspected
	rec := httptest.NewRecorder()
	inspector.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/inspect?prefix=user:", nil))

	// Then the row is listed without its hash
	req.Equal(http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	req.NoError(err)
	req.Contains(string(body), "user:u-1")
	req.Contains(string(body), "sessions")
	req.NotContains(string(body), "secret")
}

func TestInspector_Scan_Failure(t *testing.T) {
	req := require.New(t)
	inspector := NewInspector(failingScanner{}, nil, logs.GetLoggerFromLevel(slog.LevelError))

	rec := httptest.NewRecorder()
	inspector.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/inspect", nil))

	req.Equal(http.StatusInternalServerError, rec.Code)
}

func TestDefaultMapper(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		val      string
		wantType string
		detail   string
	}{
		{"chat", "chat:1", `{"id":"1"}`, "CHAT", `{"id":"1"}`},
		{"user hash", "user:1", `{"id":"1","password_hash":"h"}`, "USER", `{"id":"1","password_hash":"[redacted]"}`},
		{"corrupted user", "user:1", `not json`, "USER", redacted},
		{"sequence", "seq:msg", "12345678", "SEQ", "Size: 8 bytes"},
		{"no prefix", "orphan", "x", "RAW", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			row := DefaultMapper(tt.key, []byte(tt.val))
			req.Equal(tt.key, row.Key)
			req.Equal(tt.wantType, row.Type)
			req.Equal(tt.detail, row.Detail)
		})
	}
}

type failingScanner struct{}

func (failingScanner) Scan(string, func(string, []byte) error) error {
	return fmt.Errorf("boom")
}
