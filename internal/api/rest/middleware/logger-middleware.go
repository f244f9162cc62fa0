package middleware

import (
	"strconv"
	"time"

	"github.com/SundayYogurt/school_service/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request and records its latency by route.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		if err != nil {
			// let the app error handler write the response before we read the status
			if herr := ctx.App().ErrorHandler(ctx, err); herr != nil {
				_ = ctx.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := ctx.Response().StatusCode()
		latency := time.Since(start)
		route := ctx.Route().Path

		metrics.APILatency.
			WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).
			Observe(latency.Seconds())

		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", ctx.IP()),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
		return nil
	}
}
