package core

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const sessionName = "gostar_session"

// Context keys set by the middleware chain.
const (
	ctxSessionKey = "session"
	ctxUserKey    = "session_user"
)

// SessionMiddleware ensures a cookie session exists and applies consistent
// cookie options. The cookie carries only the opaque store token.
func SessionMiddleware(cfg Config, store *sessions.CookieStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			// A tampered cookie, or one signed with a rotated SESSION_KEY,
			// fails to decode. Gorilla returns a fresh session alongside the
			// error; treat the caller as anonymous rather than failing the
			// request.
			log.Printf("session cookie rejected, starting fresh: %v", err)
		}

		applySessionOptions(cfg, session)
		c.Set(ctxSessionKey, session)
		c.Next()
	}
}

// RequireAuth is the access-control filter: it resolves the caller's token
// against the session store and redirects anonymous callers to /login
// without disclosing why. On success the session record is set on the context.
func RequireAuth(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, _, ok := resolveSession(c, store)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(ctxUserKey, data)
		c.Next()
	}
}

// resolveSession reads the cookie token and looks it up in the store.
// Returns ok=false for anonymous, expired, or destroyed sessions.
func resolveSession(c *gin.Context, store SessionStore) (*SessionData, string, bool) {
	sess := currentCookieSession(c)
	if sess == nil {
		return nil, "", false
	}
	token, _ := sess.Values["token"].(string)
	if token == "" {
		return nil, "", false
	}
	data, err := store.Get(c.Request.Context(), token)
	if err != nil {
		return nil, "", false
	}
	return data, token, true
}

// currentCookieSession returns the gorilla session placed by SessionMiddleware.
func currentCookieSession(c *gin.Context) *sessions.Session {
	sessionAny, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil
	}
	sess, _ := sessionAny.(*sessions.Session)
	return sess
}

// sessionUser returns the record set by RequireAuth.
func sessionUser(c *gin.Context) *SessionData {
	userAny, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	data, _ := userAny.(*SessionData)
	return data
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	session.Options.Path = "/"
	session.Options.MaxAge = cfg.SessionTTLHrs * 3600
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure()
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
