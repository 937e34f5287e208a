package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/olympiad-admin-api/internal/middleware"
	"github.com/noah-isme/olympiad-admin-api/internal/service"
)

func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{IPAddress: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if claims := middleware.Claims(c); claims != nil {
		actor.UserID = claims.UserID
	}
	return actor
}
