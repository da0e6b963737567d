package httpapi

import (
	"context"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HeaderProfileID names the acting profile. Identity is asserted by the
// gateway in front of the API.
const HeaderProfileID = "X-Profile-ID"

const profileKey = "profile"

func profileMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id := strings.TrimSpace(ctx.Request().Header.Get(HeaderProfileID))
		if id == "" {
			return errMissingProfile
		}
		ctx.Set(profileKey, id)
		return next(ctx)
	}
}

func contextProfile(ctx echo.Context) string {
	id, _ := ctx.Get(profileKey).(string)
	return id
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if id := contextProfile(c); id != "" {
				attrs = append(attrs, slog.String("profile", id))
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), level, "http request", attrs...)
			return nil
		},
	})
}
