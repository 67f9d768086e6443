package handlers

import (
	"net/http"
	"strconv"

	"loterias/internal/models"
	"loterias/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

type analyzeRequest struct {
	Concurso *int `json:"concurso"`
}

type filterRequest struct {
	Cartoes  [][]int              `json:"cartoes"`
	Concurso int                  `json:"concurso"`
	Config   *models.FilterConfig `json:"config"`
}

type filterResponse struct {
	TotalInicial   int            `json:"total_inicial"`
	TotalAprovados int            `json:"total_aprovados"`
	Aprovados      []models.Card  `json:"aprovados"`
	Rejeitados     map[string]int `json:"rejeitados"`
}

type generateRequest struct {
	Quantidade   int                         `json:"quantidade"`
	Preferencias models.GeneratorPreferences `json:"preferencias"`
}

// Analisar runs the Lotofácil analysis for a contest.
func (h *HTTPHandler) Analisar(c *gin.Context) {
	h.analyze(c, models.Lotofacil)
}

// AnalisarJogo runs the analysis for the game in the path.
func (h *HTTPHandler) AnalisarJogo(c *gin.Context) {
	h.analyze(c, game(c))
}

func (h *HTTPHandler) analyze(c *gin.Context, g models.Game) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Concurso == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "informe o campo concurso (inteiro)"})
		return
	}
	result, err := h.analysis.Analyze(g, *req.Concurso)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListGames returns the supported games.
func (h *HTTPHandler) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, models.Games)
}

// Statistics returns the statistics of a game.
func (h *HTTPHandler) Statistics(c *gin.Context) {
	stats, err := h.analysis.Statistics(game(c), windowParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// LatestDraw returns the most recent contest.
func (h *HTTPHandler) LatestDraw(c *gin.Context) {
	d, err := h.analysis.Latest(game(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DrawByNumber returns one contest.
func (h *HTTPHandler) DrawByNumber(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("numero"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "número de concurso inválido"})
		return
	}
	d, err := h.analysis.Draw(game(c), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// FilterCards runs user supplied cards through the filter chain. The config
// in the body is decoded over the game's defaults, so omitted thresholds keep
// their default values.
func (h *HTTPHandler) FilterCards(c *gin.Context) {
	g := game(c)
	cfg := models.DefaultFilterConfig(g)
	req := filterRequest{Config: &cfg}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Config == nil {
		req.Config = &cfg
	}
	result, err := h.analysis.FilterCards(g, req.Cartoes, req.Concurso, *req.Config)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFilterResponse(result))
}

// UploadCardsCSV handles the CSV upload of candidate cards and filters them
// against the contest given in the form.
func (h *HTTPHandler) UploadCardsCSV(c *gin.Context) {
	g := game(c)
	concurso, err := strconv.Atoi(c.PostForm("concurso"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "concurso inválido"})
		return
	}
	file, _, err := c.Request.FormFile("cartoesCSV")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving file: " + err.Error()})
		return
	}
	defer file.Close()

	cards, err := services.ParseCardsCSV(file, g)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Infof("Uploaded %d %s cards for contest %d", len(cards), g.Slug, concurso)

	numbers := make([][]int, len(cards))
	for i, card := range cards {
		numbers[i] = card.Numbers
	}
	result, err := h.analysis.FilterCards(g, numbers, concurso, models.DefaultFilterConfig(g))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFilterResponse(result))
}

// GenerateCards produces suggested cards for subscribers.
func (h *HTTPHandler) GenerateCards(c *gin.Context) {
	g := game(c)
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantidade > 0 {
		req.Preferencias.Quantidade = req.Quantidade
	}
	prefs := services.MergePreferences(g, req.Preferencias)
	cards, err := h.analysis.Generate(g, prefs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jogo": g.Slug, "cartoes": cards})
}

func newFilterResponse(r *services.FilterResult) filterResponse {
	return filterResponse{
		TotalInicial:   r.Total,
		TotalAprovados: len(r.Approved),
		Aprovados:      r.Approved,
		Rejeitados:     r.Rejections,
	}
}
