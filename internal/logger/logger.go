// Package logger - общий zap-логгер сервиса планировщика.
// Слои пишут через функции пакета и помечают сообщения префиксом:
// HTTP:, Service:, Repository:, Worker:, Broadcast:, Migrations:.
package logger

import (
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006/01/02 15:04:05"

// до вызова Init логи никуда не пишутся, это удобно в тестах
var Logger *zap.Logger = zap.NewNop()

// Init выбирает формат по logging.development: цветной консольный или JSON
func Init(development bool) error {
	var err error
	var built *zap.Logger
	if development {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		built, err = config.Build()

	} else {
		config := zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		built, err = config.Build()
	}

	if err != nil {
		return err
	}

	Logger = built.With(zap.String("service", "task-planner"))
	return nil
}

func Sync() {
	_ = Logger.Sync()
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

// Log - уровень выбирается вызывающим, так middleware пишет 4xx как warn, 5xx как error
func Log(lvl zapcore.Level, msg string, fields ...zap.Field) {
	Logger.Log(lvl, msg, fields...)
}

// HttpRequestInfo добавляет к записи метод, путь, query и адрес клиента
func HttpRequestInfo(r *http.Request, msg string, fields ...zap.Field) {
	allFields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("query", r.URL.RawQuery),
		zap.String("client_ip", r.RemoteAddr),
	}
	allFields = append(allFields, fields...)
	Logger.Info(msg, allFields...)
}

// Error пропускает nil-ошибку, поле error тогда не пишется
func Error(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Logger.Error(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}
