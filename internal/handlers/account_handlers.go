package handlers

import (
	"errors"
	"net/http"

	"loterias/internal/database"
	"loterias/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

type registerRequest struct {
	Nome  string `json:"nome" binding:"required"`
	Email string `json:"email" binding:"required"`
	Senha string `json:"senha" binding:"required"`
}

type confirmRequest struct {
	Email  string `json:"email" binding:"required"`
	Codigo string `json:"codigo" binding:"required"`
}

type loginRequest struct {
	Email string `json:"email" binding:"required"`
	Senha string `json:"senha" binding:"required"`
}

type subscribeRequest struct {
	PlanoID string `json:"plano_id" binding:"required"`
	Metodo  string `json:"metodo" binding:"required"`
}

// Register creates an account. The confirmation code would be e-mailed; here
// it is only logged.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, code, err := h.accounts.Register(c.Request.Context(), req.Nome, req.Email, req.Senha)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Infof("Confirmation code for %s: %s (expires %s)", user.Email, code.Codigo, code.ExpiraEm.Format("15:04"))
	c.JSON(http.StatusCreated, user)
}

// Confirm validates the e-mail confirmation code.
func (h *HTTPHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.accounts.Confirm(c.Request.Context(), req.Email, req.Codigo); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmado"})
}

// Login returns a bearer token.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, user, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Senha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "usuario": user})
}

// ListPlans returns the plans on sale.
func (h *HTTPHandler) ListPlans(c *gin.Context) {
	plans, err := h.accounts.ListPlans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if plans == nil {
		plans = []models.Plan{}
	}
	c.JSON(http.StatusOK, plans)
}

// Subscribe issues a PIX or boleto charge for a plan.
func (h *HTTPHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := h.payments.CreateCharge(c.Request.Context(), userID(c), req.PlanoID, req.Metodo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// SimulatePayment confirms a charge as if the bank had notified it.
func (h *HTTPHandler) SimulatePayment(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.payments.Payment(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if p.UsuarioID != userID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "pagamento não encontrado"})
		return
	}
	payment, sub, err := h.payments.SimulatePayment(ctx, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pagamento": payment, "assinatura": sub})
}

// MySubscription returns the caller's active subscription.
func (h *HTTPHandler) MySubscription(c *gin.Context) {
	sub, err := h.accounts.ActiveSubscription(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// GetSendSettings returns the caller's delivery preferences.
func (h *HTTPHandler) GetSendSettings(c *gin.Context) {
	settings, err := h.accounts.SendSettings(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "nenhuma configuração de envio"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSendSettings stores the caller's delivery preferences.
func (h *HTTPHandler) SaveSendSettings(c *gin.Context) {
	var settings models.SendSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings.UsuarioID = userID(c)
	if err := h.accounts.SaveSendSettings(c.Request.Context(), &settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
