package core

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

var gameNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, cookieStore *sessions.CookieStore, auth AuthService, sessionStore SessionStore) *gin.Engine {
	r := gin.Default()

	r.Use(SessionMiddleware(cfg, cookieStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.GET("/", func(c *gin.Context) {
		if _, _, ok := resolveSession(c, sessionStore); ok {
			c.Redirect(http.StatusFound, "/dashboard")
			return
		}
		c.Redirect(http.StatusFound, "/login")
	})

	r.GET("/login", func(c *gin.Context) {
		if _, _, ok := resolveSession(c, sessionStore); ok {
			c.Redirect(http.StatusFound, "/dashboard")
			return
		}
		servePage(c, cfg, "login.html")
	})

	r.POST("/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		// Malformed input is answered exactly like bad credentials.
		if err := c.ShouldBindJSON(&req); err != nil {
			respondLoginFailure(c)
			return
		}

		user, err := auth.Authenticate(req.Username, req.Password)
		if err != nil {
			respondLoginFailure(c)
			return
		}

		sess := currentCookieSession(c)
		if sess == nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
			return
		}

		ctx := c.Request.Context()
		// Replace any previous session for this cookie (simple rotation).
		if old, _ := sess.Values["token"].(string); old != "" {
			_ = sessionStore.Destroy(ctx, old)
		}

		token, err := sessionStore.Create(ctx, SessionData{
			UserID:    user.ID,
			Username:  user.Username,
			Role:      user.Role,
			ExpiresAt: time.Now().Add(time.Duration(cfg.SessionTTLHrs) * time.Hour),
		})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create session")
			return
		}

		sess.Values = map[interface{}]interface{}{}
		sess.Values["token"] = token
		applySessionOptions(cfg, sess)
		if err := sess.Save(c.Request, c.Writer); err != nil {
			_ = sessionStore.Destroy(ctx, token)
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to set session")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "redirect": "/dashboard"})
	})

	r.GET("/logout", func(c *gin.Context) {
		sess := currentCookieSession(c)
		if sess != nil {
			if token, _ := sess.Values["token"].(string); token != "" {
				// Destroy failures must not block the redirect.
				if err := sessionStore.Destroy(c.Request.Context(), token); err != nil {
					log.Printf("logout: failed to destroy session: %v", err)
				}
			}
			sess.Values = map[interface{}]interface{}{}
			applySessionOptions(cfg, sess)
			sess.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to properly delete cookie
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Printf("logout: failed to clear cookie: %v", err)
			}
		}
		c.Redirect(http.StatusFound, "/login")
	})

	protected := r.Group("/", RequireAuth(sessionStore))
	{
		protected.GET("/dashboard", func(c *gin.Context) {
			servePage(c, cfg, "dashboard.html")
		})

		protected.GET("/game/:name", func(c *gin.Context) {
			name := c.Param("name")
			if !gameNamePattern.MatchString(name) {
				respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown game")
				return
			}
			path := filepath.Join(cfg.PagesDir, "games", name+".html")
			if _, err := os.Stat(path); err != nil {
				respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown game")
				return
			}
			c.File(path)
		})

		protected.GET("/api/user", func(c *gin.Context) {
			user := sessionUser(c)
			if user == nil {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
				return
			}
			c.JSON(http.StatusOK, gin.H{"username": user.Username, "role": user.Role})
		})
	}

	return r
}

func respondLoginFailure(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
}

func servePage(c *gin.Context, cfg Config, name string) {
	path := filepath.Join(cfg.PagesDir, name)
	if _, err := os.Stat(path); err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "page not found")
		return
	}
	c.File(path)
}
