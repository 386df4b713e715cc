package user

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CookieName   = "actor-id"
	CookieMaxAge = 365 * 24 * 60 * 60
	ActorIDKey   = "actorID"
)

// EnsureActorCookieMiddleware makes sure the browser carries a
// well-formed actor-id cookie. A missing or malformed cookie gets a
// fresh provisional ID.
func EnsureActorCookieMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := c.Cookie(CookieName)

		if err != nil || !IsValidUUID(actorID) {
			if err != http.ErrNoCookie {
				fmt.Printf("invalid actor cookie detected: %s, err: %v\n", actorID, err)
			}
			provisionalID, err := CreateProvisionalActor()
			if err != nil {
				fmt.Printf("failed to create provisional actor ID: %v\n", err)
			} else {
				c.SetCookie(CookieName, provisionalID, CookieMaxAge, "/", "", false, true)
			}
		}

		c.Next()
	}
}

// LoadActorMiddleware reads the cookie and puts its value into the gin
// context for handlers downstream.
func LoadActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, _ := c.Cookie(CookieName)
		c.Set(ActorIDKey, actorID)
		c.Next()
	}
}

// ActorFromContext returns the actor ID loaded by the middleware, or
// nil for anonymous requests.
func ActorFromContext(c *gin.Context) *string {
	value, exists := c.Get(ActorIDKey)
	if !exists {
		return nil
	}
	actorID, ok := value.(string)
	if !ok || actorID == "" {
		return nil
	}
	return &actorID
}
