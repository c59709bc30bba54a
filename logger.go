package featuregate

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

type contextKey string

const (
	loggerContextKey    contextKey = "featuregate.logger"
	startTimeContextKey contextKey = "featuregate.startTime"
)

func newRestyLogRequestMiddleware(logger *slog.Logger) resty.RequestMiddleware {
	return func(c *resty.Client, req *resty.Request) error {
		reqLogger := logger.WithGroup("http").With(
			"method", req.Method,
			"url", req.URL,
		)
		reqLogger.Debug("request")

		// Store the logger in this request's context, and use it in the response
		req.SetContext(context.WithValue(req.Context(), loggerContextKey, reqLogger))

		// Time the current request
		req.SetContext(context.WithValue(req.Context(), startTimeContextKey, time.Now()))

		return nil
	}
}

func newRestyLogResponseMiddleware(logger *slog.Logger) resty.ResponseMiddleware {
	return func(client *resty.Client, resp *resty.Response) error {
		reqLogger, _ := resp.Request.Context().Value(loggerContextKey).(*slog.Logger)
		startTime, _ := resp.Request.Context().Value(startTimeContextKey).(time.Time)

		if reqLogger == nil {
			reqLogger = logger
		}
		reqLogger = reqLogger.With(
			slog.Int("status", resp.StatusCode()),
			slog.Duration("duration", time.Since(startTime)),
			slog.Int64("content_length", resp.Size()),
		)
		if resp.IsError() {
			reqLogger.Error("error response")
		} else {
			reqLogger.Debug("response")
		}
		return nil
	}
}
