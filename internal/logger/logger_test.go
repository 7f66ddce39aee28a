package logger

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger
	Logger = zap.New(core)
	t.Cleanup(func() { Logger = prev })
	return logs
}

// TestError тестирует запись поля error только для непустой ошибки
func TestError(t *testing.T) {
	logs := observe(t)

	Error("Service: сбой", errors.New("boom"), zap.String("task_id", "t1"))
	Error("Service: без причины", nil)

	entries := logs.AllUntimed()
	assert.Len(t, entries, 2)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	assert.Equal(t, "t1", entries[0].ContextMap()["task_id"])
	assert.NotContains(t, entries[1].ContextMap(), "error")
}

func TestHttpRequestInfo(t *testing.T) {
	logs := observe(t)

	req := httptest.NewRequest("GET", "/tasks?limit=5", nil)
	HttpRequestInfo(req, "HTTP_IN:", zap.Int("http_status", 200))

	fields := logs.AllUntimed()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/tasks", fields["path"])
	assert.Equal(t, "limit=5", fields["query"])
	assert.EqualValues(t, 200, fields["http_status"])
}

func TestLog_Level(t *testing.T) {
	logs := observe(t)

	Log(zapcore.WarnLevel, "HTTP_OUT: Завершение запроса")

	assert.Equal(t, zapcore.WarnLevel, logs.AllUntimed()[0].Level)
}
