package mockserver

import (
	"social_network_client/pkg/middlewares"
	"social_network_client/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册 REST 與 websocket 路由
func RegisterRoutes(app *fiber.App, h *Handler, hub *Hub, issuer *token.Issuer) {
	app.Get("/", ConnectCheck)
	app.Post("/debug", DebugLogFlag)

	app.Post("/login", h.Login)
	app.Post("/signup", h.Signup)
	app.Get("/logout", h.Logout)

	auth := app.Group("", middlewares.SessionMiddleware(issuer))
	auth.Get("/auth", h.Auth)
	auth.Get("/notifications", h.Notifications)
	auth.Get("/profile", h.Profile)
	auth.Get("/profile/:id", h.Profile)
	auth.Get("/followers", h.Followers)
	auth.Get("/followers/:id", h.Followers)
	auth.Get("/feedposts/:offset", h.FeedPosts)
	auth.Post("/post", h.CreatePost)
	auth.Post("/creategroup", h.CreateGroup)
	auth.Post("/addmembers", h.AddMembers)

	auth.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	auth.Get("/ws", websocket.New(hub.HandleConnection))
}
