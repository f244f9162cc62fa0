package middleware

import (
	"strings"

	"github.com/SundayYogurt/school_service/internal/helper"
	"github.com/SundayYogurt/school_service/internal/helper/utils"
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware accepts a session token from the Authorization header or the
// access_token cookie.
func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := strings.TrimSpace(ctx.Get(fiber.HeaderAuthorization))
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Cookies("access_token"))
		}

		claims, err := auth.VerifyToken(tokenStr, helper.PurposeSession)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
		}

		ctx.Locals("schoolID", claims.SchoolID)
		ctx.Locals("user", claims)
		return ctx.Next()
	}
}
