package apitest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const userKey = "apitest.user"

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func (a *API) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.record(), a.injected())

	auth := r.Group("/api/auth")
	auth.POST("/register", a.register)
	auth.POST("/login", a.login)
	auth.GET("/me", a.requireJWT(), a.me)

	api := r.Group("/api", a.requireJWT())
	api.GET("/dashboard", a.dashboard)
	api.GET("/profile", a.profile)
	api.GET("/admin", a.admin)

	return r
}

func (a *API) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.mu.Lock()
		a.requests = append(a.requests, Request{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Authorization: c.GetHeader("Authorization"),
			RequestID:     c.GetHeader("X-Request-ID"),
			UserAgent:     c.GetHeader("User-Agent"),
		})
		a.mu.Unlock()
		c.Next()
	}
}

func (a *API) injected() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + c.Request.URL.Path
		a.mu.Lock()
		inj, ok := a.inject[key]
		delete(a.inject, key)
		a.mu.Unlock()
		if ok {
			c.AbortWithStatusJSON(inj.status, inj.body)
			return
		}
		c.Next()
	}
}

func (a *API) requireJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Missing Authorization Header"})
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Missing 'Bearer' type in 'Authorization' header"})
			return
		}

		claims, err := a.tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is invalid or has expired"})
			return
		}

		a.mu.Lock()
		_, revoked := a.revoked[claims.ID]
		a.mu.Unlock()
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token has been revoked"})
			return
		}

		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Invalid token subject"})
			return
		}
		c.Set(userKey, id)
		c.Next()
	}
}

// currentUser answers 404 itself when the token's user no longer exists.
func (a *API) currentUser(c *gin.Context) (*user, bool) {
	id := c.GetInt64(userKey)
	a.mu.Lock()
	u, ok := a.byID[id]
	a.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	return u, true
}

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username, email and password are required"})
		return
	}

	if _, err := a.AddUser(body.Username, body.Email, body.Password); err != nil {
		if errors.Is(err, ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	token, err := a.IssueToken(body.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	a.mu.Lock()
	u := a.users[body.Username]
	a.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{
		"message":      "User created successfully",
		"user":         u.toMap(),
		"access_token": token,
	})
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	a.mu.Lock()
	u, ok := a.users[body.Username]
	a.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(body.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := a.IssueToken(u.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user":         u.toMap(),
	})
}

func (a *API) me(c *gin.Context) {
	u, ok := a.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.toMap()})
}

func (a *API) dashboard(c *gin.Context) {
	u, ok := a.currentUser(c)
	if !ok {
		return
	}

	a.mu.Lock()
	var stats Stats
	if a.stats != nil {
		stats = *a.stats
	} else {
		stats.TotalUsers = len(a.users)
		for _, other := range a.users {
			if other.IsActive {
				stats.ActiveUsers++
			}
		}
	}
	a.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to your dashboard, " + u.Username + "!",
		"user":    u.toMap(),
		"data": gin.H{
			"total_users":  stats.TotalUsers,
			"active_users": stats.ActiveUsers,
		},
	})
}

func (a *API) profile(c *gin.Context) {
	u, ok := a.currentUser(c)
	if !ok {
		return
	}
	age := int(a.now().UTC().Sub(u.CreatedAt).Hours() / 24)
	c.JSON(http.StatusOK, gin.H{
		"profile": u.toMap(),
		"stats": gin.H{
			"account_age_days": age,
			"is_active":        u.IsActive,
		},
	})
}

func (a *API) admin(c *gin.Context) {
	u, ok := a.currentUser(c)
	if !ok {
		return
	}
	if u.Username != AdminUsername {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	a.mu.Lock()
	users := make([]gin.H, 0, len(a.byID))
	for id := int64(1); id <= a.nextID; id++ {
		if other, ok := a.byID[id]; ok {
			users = append(users, other.toMap())
		}
	}
	a.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":     "Admin panel access granted",
		"users":       users,
		"total_users": len(users),
	})
}
