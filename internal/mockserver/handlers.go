package mockserver

import (
	"errors"
	"strings"
	"time"

	"social_network_client/pkg/encrypt"
	"social_network_client/pkg/logger"
	"social_network_client/pkg/middlewares"
	"social_network_client/pkg/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler REST endpoints of the mock backend
type Handler struct {
	store  *Store
	hub    *Hub
	issuer *token.Issuer
}

// NewHandler create Handler
func NewHandler(store *Store, hub *Hub, issuer *token.Issuer) *Handler {
	return &Handler{store: store, hub: hub, issuer: issuer}
}

// Login 用户登录
// @Summary 用户登录
// @Description username 可以是 email 或 nickname, 成功時設定 session cookie
// @Accept json
// @Param request body object true "username, password"
// @Success 200 "登录成功"
// @Failure 400 "缺少帳號或密碼"
// @Failure 401 "登录失败"
// @Router /login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	user, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		logger.Log.Debug("login rejected", zap.String("username", req.Username), zap.Error(err))
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	tok, err := h.issuer.GenerateJWT(user.ID)
	if err != nil {
		logger.Log.Error("generate jwt failed", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    tok,
		Path:     "/",
		Expires:  time.Now().Add(h.issuer.Expiration()),
		HTTPOnly: true,
	})
	logger.Log.Info("login success", zap.Int64("user_id", user.ID))
	return c.SendStatus(fiber.StatusOK)
}

// Signup 注册新用户
// @Summary 注册新用户
// @Description 衝突時 400 body 為 email / nickname / password
// @Accept json
// @Success 200 "注册成功"
// @Failure 400 "衝突欄位"
// @Router /signup [post]
func (h *Handler) Signup(c *fiber.Ctx) error {
	var in SignupInput
	if err := c.BodyParser(&in); err != nil || in.Email == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	user, err := h.store.Signup(in)
	switch {
	case errors.Is(err, ErrEmailTaken):
		return c.Status(fiber.StatusBadRequest).SendString("email\n")
	case errors.Is(err, ErrNicknameTaken):
		return c.Status(fiber.StatusBadRequest).SendString("nickname\n")
	case errors.Is(err, encrypt.ErrWeakPassword):
		return c.Status(fiber.StatusBadRequest).SendString("password\n")
	case err != nil:
		logger.Log.Error("signup failed", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	logger.Log.Info("signup success", zap.Int64("user_id", user.ID))
	return c.SendStatus(fiber.StatusOK)
}

// Logout 清除 session cookie
// @Router /logout [get]
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.ClearCookie(middlewares.CookieToken)
	return c.SendStatus(fiber.StatusOK)
}

// Auth 200 when the session cookie is valid
// @Router /auth [get]
func (h *Handler) Auth(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// Notifications pending list of the session user
// @Router /notifications [get]
func (h *Handler) Notifications(c *fiber.Ctx) error {
	return c.JSON(h.store.Notifications(middlewares.UserID(c)))
}

// Profile own profile, or /profile/:id
// @Router /profile/{id} [get]
func (h *Handler) Profile(c *fiber.Ctx) error {
	me := middlewares.UserID(c)
	id := me
	if c.Params("id") != "" {
		v, err := c.ParamsInt("id")
		if err != nil || v <= 0 {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		id = int64(v)
	}

	u, ok := h.store.User(id)
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.JSON(fiber.Map{
		"id":           u.ID,
		"firstName":    u.FirstName,
		"lastName":     u.LastName,
		"email":        u.Email,
		"birthday":     u.Birthday,
		"nickname":     u.Nickname,
		"about":        u.About,
		"createdAt":    u.CreatedAt,
		"isPublic":     u.IsPublic,
		"isFollowed":   h.store.IsFollowing(me, u.ID),
		"isOwnProfile": u.ID == me,
	})
}

// Followers users following :id (or the session user)
// @Router /followers/{id} [get]
func (h *Handler) Followers(c *fiber.Ctx) error {
	id := middlewares.UserID(c)
	if c.Params("id") != "" {
		v, err := c.ParamsInt("id")
		if err != nil || v <= 0 {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		id = int64(v)
	}

	out := []fiber.Map{}
	for _, fid := range h.store.Followers(id) {
		u, ok := h.store.User(fid)
		if !ok {
			continue
		}
		out = append(out, fiber.Map{
			"id":        u.ID,
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"nickname":  u.Nickname,
			"accepted":  true,
		})
	}
	return c.JSON(out)
}

// FeedPosts public posts and posts of followed users, older than :offset
// @Router /feedposts/{offset} [get]
func (h *Handler) FeedPosts(c *fiber.Ctx) error {
	offset, err := c.ParamsInt("offset")
	if err != nil || offset < 0 {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	me := middlewares.UserID(c)

	// Feed 持有 store lock, 過濾條件需事先算好
	following := make(map[int64]bool)
	for _, uid := range h.store.Authors() {
		if uid == me || h.store.IsFollowing(me, uid) {
			following[uid] = true
		}
	}
	return c.JSON(h.store.Feed(int64(offset), func(p Post) bool {
		return p.GroupID == 0 && following[p.UserID]
	}))
}

// CreatePost multipart content field
// @Router /post [post]
func (h *Handler) CreatePost(c *fiber.Ctx) error {
	content := strings.TrimSpace(c.FormValue("content"))
	if content == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	p := h.store.AddPost(middlewares.UserID(c), 0, content)
	return c.JSON(p)
}

// CreateGroup JSON title/description
// @Router /creategroup [post]
func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	type request struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	g := h.store.CreateGroup(middlewares.UserID(c), req.Title, req.Description)
	return c.JSON(fiber.Map{"groupId": g.ID, "groupName": g.Title})
}

// AddMembers push group_invite notifications
// @Router /addmembers [post]
func (h *Handler) AddMembers(c *fiber.Ctx) error {
	type request struct {
		GroupID int64   `json:"groupId"`
		UserIDs []int64 `json:"userIds"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil || req.GroupID <= 0 {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	me := middlewares.UserID(c)
	for _, id := range req.UserIDs {
		if err := h.hub.Invite(me, id, req.GroupID); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
	}
	return c.SendStatus(fiber.StatusOK)
}

// DebugLogFlag toggle debug logging, ?enable=true|false
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	enable := c.QueryBool("enable", true)
	logger.Log.SetDebugMode(enable)
	return c.JSON(fiber.Map{"debug": enable})
}

// ConnectCheck health check
// @Router / [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("ok")
}
