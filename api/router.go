package api

import (
	"github.com/SlpAus/tabula-metadata-backend/internal/metadata"
	"github.com/SlpAus/tabula-metadata-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the project's API routes.
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		metadataRoutes := api.Group("/metadata")
		{
			// The whole-instance nested mapping is readable without
			// the edit capability.
			metadataRoutes.GET("", metadata.GetInstanceSnapshot)

			// Edit-form defaults and edits require the capability;
			// the actor cookie middlewares run first so the guard can
			// see who is asking.
			metadataRoutes.GET("/edit",
				user.EnsureActorCookieMiddleware(),
				user.LoadActorMiddleware(),
				user.RequireCapability(user.CapabilityEditMetadata),
				metadata.GetEditDefaults)
			metadataRoutes.POST("/edit",
				user.LoadActorMiddleware(),
				user.RequireCapability(user.CapabilityEditMetadata),
				metadata.SubmitEdit)
		}
	}
}
