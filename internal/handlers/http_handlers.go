package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"loterias/internal/models"
	"loterias/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	analysis  *services.AnalysisService
	accounts  *services.AccountService
	payments  *services.PaymentService
	templates *template.Template
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(analysis *services.AnalysisService, accounts *services.AccountService, payments *services.PaymentService, templates *template.Template) *HTTPHandler {
	return &HTTPHandler{
		analysis:  analysis,
		accounts:  accounts,
		payments:  payments,
		templates: templates,
	}
}

// renderPage is a helper to perform a two-step template rendering.
// It first executes the content template into a buffer, then executes the main
// layout template, passing the rendered content as a variable.
func (h *HTTPHandler) renderPage(c *gin.Context, pageData gin.H, contentTmpl string) {
	// Step 1: Render the specific page content into a buffer.
	buf := new(bytes.Buffer)
	err := h.templates.ExecuteTemplate(buf, contentTmpl, pageData)
	if err != nil {
		logger.Infof("Error executing content template %s: %v", contentTmpl, err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}

	// Step 2: Add the rendered content to the main data map and render the layout.
	pageData["PageContent"] = template.HTML(buf.String())
	pageData["Games"] = models.Games

	c.Header("Content-Type", "text/html; charset=utf-8")
	err = h.templates.ExecuteTemplate(c.Writer, "layout.html", pageData)
	if err != nil {
		logger.Infof("Error executing layout template: %v", err)
		c.String(http.StatusInternalServerError, "Template rendering error")
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/", h.ShowIndex)
	router.GET("/painel/:jogo", h.ShowDashboard)
	router.POST("/analisar", h.Analisar)

	api := router.Group("/api")
	api.GET("/jogos", h.ListGames)
	api.GET("/planos", h.ListPlans)
	api.POST("/usuarios", h.Register)
	api.POST("/usuarios/confirmar", h.Confirm)
	api.POST("/login", h.Login)

	games := api.Group("/jogos/:jogo")
	games.Use(h.GameMiddleware())
	games.POST("/analisar", h.AnalisarJogo)
	games.GET("/analisar/:concurso/csv", h.ExportAnalysisCSV)
	games.GET("/estatisticas", h.Statistics)
	games.GET("/concursos/ultimo", h.LatestDraw)
	games.GET("/concursos/:numero", h.DrawByNumber)
	games.POST("/filtrar", h.FilterCards)
	games.POST("/cartoes/upload", h.UploadCardsCSV)
	games.POST("/gerar", h.AuthMiddleware(), h.RequireSubscription(), h.GenerateCards)

	private := api.Group("/")
	private.Use(h.AuthMiddleware())
	private.POST("/assinaturas", h.Subscribe)
	private.POST("/pagamentos/:id/simular", h.SimulatePayment)
	private.GET("/me/assinatura", h.MySubscription)
	private.GET("/me/envio", h.GetSendSettings)
	private.PUT("/me/envio", h.SaveSendSettings)
}

// Health reports that the server is up.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ShowIndex handles the request for the home page.
func (h *HTTPHandler) ShowIndex(c *gin.Context) {
	type gameSummary struct {
		Game   models.Game
		Latest *models.Draw
	}
	summaries := make([]gameSummary, 0, len(models.Games))
	for _, g := range models.Games {
		s := gameSummary{Game: g}
		if d, err := h.analysis.Latest(g); err == nil {
			s.Latest = d
		}
		summaries = append(summaries, s)
	}
	h.renderPage(c, gin.H{"title": "Início", "Summaries": summaries}, "index.html")
}

// ShowDashboard renders the statistics dashboard of a game.
func (h *HTTPHandler) ShowDashboard(c *gin.Context) {
	g, ok := models.GameBySlug(c.Param("jogo"))
	if !ok {
		c.String(http.StatusNotFound, "Jogo desconhecido")
		return
	}
	data := gin.H{"title": "Painel " + g.Name, "Game": g}
	stats, err := h.analysis.Statistics(g, windowParam(c))
	if err != nil {
		logger.Warningf("Dashboard of %s without statistics: %v", g.Slug, err)
		data["Error"] = err.Error()
	} else {
		data["Stats"] = stats
	}
	h.renderPage(c, data, "painel.html")
}

// ExportAnalysisCSV downloads the approved cards of an analysis as CSV.
func (h *HTTPHandler) ExportAnalysisCSV(c *gin.Context) {
	g := game(c)
	concurso, err := strconv.Atoi(c.Param("concurso"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "concurso inválido"})
		return
	}
	result, err := h.analysis.Analyze(g, concurso)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=%s_%d_aprovados.csv", g.Slug, concurso))

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	w.Comma = ';'

	if err := w.Write([]string{fmt.Sprintf("Cartao_%d", g.CardSize), "Soma", "Pares"}); err != nil {
		logger.Infof("Error writing CSV header: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
		return
	}

	for _, card := range result.Aprovados {
		nums := make([]string, len(card.Numbers))
		for i, n := range card.Numbers {
			nums[i] = strconv.Itoa(n)
		}
		row := []string{"[" + strings.Join(nums, ", ") + "]", strconv.Itoa(card.Sum()), strconv.Itoa(card.Evens())}
		if err := w.Write(row); err != nil {
			logger.Infof("Error writing CSV row: %v", err)
			c.String(http.StatusInternalServerError, "Error writing CSV")
			return
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		logger.Infof("Error flushing CSV writer: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
	}
}
