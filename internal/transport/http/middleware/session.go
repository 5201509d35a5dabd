package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sid"

	ctxSessionID = "session_id"
	sessionIDLen = 32 // hex-символов
)

type SessionConfig struct {
	MaxAge time.Duration
	Secure bool
}

// Session определяет id гостевой сессии корзины: заголовок X-Session-ID,
// затем cookie sid. Если ничего нет или значение кривое, выдаётся новый id.
func Session(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(SessionHeader)
		if !validSessionID(sid) {
			sid, _ = c.Cookie(SessionCookie)
		}
		if !validSessionID(sid) {
			sid = newSessionID()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sid, int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
		c.Header(SessionHeader, sid)
		c.Set(ctxSessionID, sid)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

func newSessionID() string {
	b := make([]byte, sessionIDLen/2)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func validSessionID(s string) bool {
	if len(s) < 16 || len(s) > 128 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
