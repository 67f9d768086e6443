package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"loterias/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	gameKey   = "game"
	userIDKey = "userID"
)

// GameMiddleware resolves the :jogo path parameter and stores the game in the
// context, rejecting unknown slugs.
func (h *HTTPHandler) GameMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := models.GameBySlug(c.Param("jogo"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "jogo desconhecido: " + c.Param("jogo")})
			return
		}
		c.Set(gameKey, g)
		c.Next()
	}
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// stores the user id in the context.
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token de acesso ausente"})
			return
		}
		userID, err := h.accounts.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequireSubscription lets the request through only when the authenticated
// user has an active subscription. It must run after AuthMiddleware.
func (h *HTTPHandler) RequireSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := h.accounts.ActiveSubscription(c.Request.Context(), userID(c)); err != nil {
			c.Abort()
			respondError(c, err)
			return
		}
		c.Next()
	}
}

func game(c *gin.Context) models.Game {
	return c.MustGet(gameKey).(models.Game)
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// windowParam reads the ?janela= query parameter; zero selects the default
// window.
func windowParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("janela"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
