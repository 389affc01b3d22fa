// Package mockserver in-memory backend speaking the social network REST and
// websocket protocol, for local development and integration tests.
package mockserver

import (
	"fmt"
	"io"

	"social_network_client/pkg/config"
	"social_network_client/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
)

// Server fiber app plus its state
type Server struct {
	App   *fiber.App
	Store *Store
	Hub   *Hub
}

// New build the fiber app, accessLog nil disables the access log
func New(cfg config.MockBackend, accessLog io.Writer) (*Server, error) {
	issuer, err := token.NewIssuer(cfg.JWTSecret, config.EnvConfig.MockBackend, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session issuer: %w", err)
	}

	store := NewStore()
	hub := NewHub(store)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	if accessLog != nil {
		app.Use(fiber_log.New(fiber_log.Config{
			Output: accessLog, // 将日志输出到文件
		}))
	}
	RegisterRoutes(app, NewHandler(store, hub, issuer), hub, issuer)

	return &Server{App: app, Store: store, Hub: hub}, nil
}

// SeedUser test / demo account
type SeedUser struct {
	Email    string
	Password string
	First    string
	Last     string
	Nickname string
}

// Seed create users, a group with all of them and a few posts
func (s *Server) Seed(users []SeedUser, groupTitle string) ([]int64, error) {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		created, err := s.Store.Signup(SignupInput{
			Email:       u.Email,
			Password:    u.Password,
			FirstName:   u.First,
			LastName:    u.Last,
			Nickname:    u.Nickname,
			DateOfBirth: "1990-01-01",
		})
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		ids = append(ids, created.ID)
		s.Store.AddPost(created.ID, 0, fmt.Sprintf("hello from %s", created.Name()))
	}
	if groupTitle != "" && len(ids) > 0 {
		g := s.Store.CreateGroup(ids[0], groupTitle, "seeded group")
		for _, id := range ids[1:] {
			if err := s.Store.AddMember(g.ID, id); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

// Listen block serving addr
func (s *Server) Listen(addr string) error {
	return s.App.Listen(addr)
}

// Shutdown stop the fiber app
func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}
