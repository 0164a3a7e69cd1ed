package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/observability"
	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

// MiddlewareConfig tunes the global middleware chain.
type MiddlewareConfig struct {
	RequestTimeout time.Duration
	// AllowOrigins is a comma separated CORS origin list; empty disables CORS.
	AllowOrigins string
}

// RegisterMiddlewares installs, outermost first: request id, access log,
// CORS, per-request deadline and error rendering. The access log wraps the
// error renderer so it records the final status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg MiddlewareConfig) {
	app.Use(requestid.New())
	app.Use(observability.RequestLogger(logger, metrics))
	if cfg.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowHeaders: "Authorization, Content-Type, Accept",
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		}))
	}
	if cfg.RequestTimeout > 0 {
		app.Use(withDeadline(cfg.RequestTimeout))
	}
	app.Use(renderErrors(logger, metrics))
}

func withDeadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// renderErrors turns any handler error or panic into the JSON error body.
func renderErrors(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("request_id", requestID(c)),
					zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			de := apperrors.ToDomainError(err)
			metrics.RecordError(c.Route().Path, c.Method(), de.Code)
			if de.HTTPStatus >= fiber.StatusInternalServerError {
				logger.Error("request failed", zap.String("request_id", requestID(c)), zap.Error(de))
			}
			err = c.Status(de.HTTPStatus).JSON(de.Body())
		}()
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	return id
}
