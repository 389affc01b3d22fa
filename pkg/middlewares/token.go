package middlewares

import (
	"social_network_client/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//CookieToken session cookie name
	CookieToken = "session"

	//TokenUserID get user id from token, set c.locals name
	TokenUserID = "UserID"
)

// SessionMiddleware validates the session JWT from the cookie (or ?auth=)
func SessionMiddleware(issuer *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(CookieToken)

		// 如果 Cookie 中沒有 token，則嘗試從查詢參數中獲取
		if tokenStr == "" {
			tokenStr = c.Query(QueryToken)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).SendString("Missing token")
		}

		claims, err := issuer.ParseJWT(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString("Invalid token")
		}

		c.Locals(TokenUserID, claims.UserID)
		return c.Next()
	}
}

// UserID user id set by SessionMiddleware, 0 when missing
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(TokenUserID).(int64)
	return id
}
