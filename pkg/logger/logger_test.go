package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	InitWithWriter(level, buf)
	t.Cleanup(func() { Init("info") })
	return buf
}

func TestInitWithWriter_Level(t *testing.T) {
	buf := captureLogs(t, "warn")

	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("hidden")) {
		t.Error("info message should be filtered at warn level")
	}
	if !bytes.Contains([]byte(out), []byte("shown")) {
		t.Error("warn message should be written")
	}
}

func TestComponent(t *testing.T) {
	buf := captureLogs(t, "info")

	l := Component("session")
	l.Info().Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["component"] != "session" {
		t.Errorf("component = %v, expected session", entry["component"])
	}
}

func TestGinLogger_RequestID(t *testing.T) {
	buf := captureLogs(t, "info")

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.String(http.StatusOK, "pong")
	})

	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"propagated", "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/ping", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			r.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if got == "" {
				t.Fatal("response is missing request id")
			}
			if tt.incoming != "" && got != tt.incoming {
				t.Errorf("request id = %q, expected %q", got, tt.incoming)
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v", err)
			}
			if entry["request_id"] != got || entry["user_id"] != "u-1" {
				t.Errorf("unexpected log entry: %v", entry)
			}
		})
	}
}

func TestGinLogger_RoleAndRedirect(t *testing.T) {
	buf := captureLogs(t, "info")

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/", func(c *gin.Context) {
		c.Set("role", "Cliente")
		c.Redirect(http.StatusFound, "/dashboard")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	r.ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["role"] != "Cliente" || entry["redirect"] != "/dashboard" {
		t.Errorf("unexpected log entry: %v", entry)
	}
	if entry["status"] != float64(http.StatusFound) {
		t.Errorf("status = %v, expected 302", entry["status"])
	}
}

func TestGinRecovery(t *testing.T) {
	captureLogs(t, "info")

	r := gin.New()
	r.Use(GinRecovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
