package user

import (
	"net/http"

	"github.com/SlpAus/tabula-metadata-backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// Capability names an action a request must be allowed to perform.
type Capability string

// CapabilityEditMetadata guards every metadata editing entry point.
const CapabilityEditMetadata Capability = "metadata-edit"

// Allowed reports whether the actor holds the capability. Grants come
// from configuration: an allow-list of actor IDs, or the
// allow-anonymous switch which opens the capability to everyone.
func Allowed(actorID *string, capability Capability) bool {
	if capability != CapabilityEditMetadata {
		return false
	}
	cfg := config.Cfg
	if cfg == nil {
		return false
	}
	if cfg.Metadata.AllowAnonymous {
		return true
	}
	if actorID == nil {
		return false
	}
	for _, editor := range cfg.Metadata.Editors {
		if editor == *actorID {
			return true
		}
	}
	return false
}

// RequireCapability is the guard composed in front of protected
// routes. Denial is a typed 403 response produced before the handler
// runs, so no side effect can precede the check.
func RequireCapability(capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Allowed(ActorFromContext(c), capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"ok":    false,
				"error": "permission denied for " + string(capability),
			})
			return
		}
		c.Next()
	}
}
