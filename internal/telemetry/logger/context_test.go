package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := FromSlog(slog.New(slog.NewJSONHandler(&buf, nil)))

	if got := FromContext(context.Background()); got != Default() {
		t.Error("FromContext() without a logger should return Default()")
	}

	FromContext(WithLogger(context.Background(), l)).Info("stored")
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"stored"`)) {
		t.Errorf("stored logger not used, output = %q", buf.String())
	}
}

func TestFromSlog_Nil(t *testing.T) {
	if FromSlog(nil) != Default() {
		t.Error("FromSlog(nil) should return Default()")
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}
	ctx := WithRequestID(context.Background(), "req-12345")
	if got := RequestIDFromContext(ctx); got != "req-12345" {
		t.Errorf("RequestIDFromContext() = %q, want req-12345", got)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
	}{
		{name: "with request id", requestID: "req-01J0000000000000000000000"},
		{name: "without request id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "json", Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			ctx := WithLogger(context.Background(), l)
			if tt.requestID != "" {
				ctx = WithRequestID(ctx, tt.requestID)
			}
			L(ctx).Info("command accepted")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log entry: %v", err)
			}
			got, ok := entry["request_id"]
			if tt.requestID == "" {
				if ok {
					t.Errorf("request_id = %v, want absent", got)
				}
				return
			}
			if got != tt.requestID {
				t.Errorf("request_id = %v, want %s", got, tt.requestID)
			}
		})
	}
}
