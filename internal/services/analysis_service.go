package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/logger"

	"loterias/internal/models"
)

var ErrDrawNotFound = errors.New("concurso não encontrado")

// gameCache holds the draws loaded for one game and the statistics computed
// from them, keyed by hot/cold window.
type gameCache struct {
	Draws      []models.Draw
	Stats      map[int]models.Statistics
	LoadedAt   time.Time
	LastAccess time.Time
}

// AnalysisOptions configures where candidate cards for an analysis come from.
type AnalysisOptions struct {
	CandidatesCSV      string // pre-filtered Cartao_N file, optional
	AnalysisCandidates int    // random cards generated when no CSV is present
}

// AnalysisService loads draws per game on demand and runs statistics,
// filters and generators over them.
type AnalysisService struct {
	mu     sync.RWMutex
	loader DrawSource
	opts   AnalysisOptions
	cache  map[string]*gameCache // Key: game slug
}

// DrawSource provides the historical draws of a game.
type DrawSource interface {
	LoadDraws(g models.Game) ([]models.Draw, error)
}

// NewAnalysisService creates and initializes a new AnalysisService.
func NewAnalysisService(loader DrawSource, opts AnalysisOptions) *AnalysisService {
	if opts.AnalysisCandidates <= 0 {
		opts.AnalysisCandidates = 500
	}
	return &AnalysisService{
		loader: loader,
		opts:   opts,
		cache:  make(map[string]*gameCache),
	}
}

// getCache returns the cache entry of a game, loading its draws if needed.
func (s *AnalysisService) getCache(g models.Game) (*gameCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.cache[g.Slug]
	if !exists {
		draws, err := s.loader.LoadDraws(g)
		if err != nil {
			return nil, err
		}
		entry = &gameCache{
			Draws:    draws,
			Stats:    make(map[int]models.Statistics),
			LoadedAt: time.Now(),
		}
		s.cache[g.Slug] = entry
	}
	entry.LastAccess = time.Now()
	return entry, nil
}

// Draws returns every loaded draw of a game, sorted by contest.
func (s *AnalysisService) Draws(g models.Game) ([]models.Draw, error) {
	entry, err := s.getCache(g)
	if err != nil {
		return nil, err
	}
	return entry.Draws, nil
}

// Draw returns one contest.
func (s *AnalysisService) Draw(g models.Game, concurso int) (*models.Draw, error) {
	draws, err := s.Draws(g)
	if err != nil {
		return nil, err
	}
	i := sort.Search(len(draws), func(i int) bool { return draws[i].Concurso >= concurso })
	if i == len(draws) || draws[i].Concurso != concurso {
		return nil, fmt.Errorf("%w: %s %d", ErrDrawNotFound, g.Name, concurso)
	}
	d := draws[i]
	return &d, nil
}

// Latest returns the most recent contest.
func (s *AnalysisService) Latest(g models.Game) (*models.Draw, error) {
	draws, err := s.Draws(g)
	if err != nil {
		return nil, err
	}
	d := draws[len(draws)-1]
	return &d, nil
}

// Statistics returns the statistics of a game, computing them once per
// window.
func (s *AnalysisService) Statistics(g models.Game, window int) (models.Statistics, error) {
	entry, err := s.getCache(g)
	if err != nil {
		return models.Statistics{}, err
	}
	window = clampWindow(window, len(entry.Draws))

	s.mu.RLock()
	stats, ok := entry.Stats[window]
	s.mu.RUnlock()
	if ok {
		return stats, nil
	}

	stats, err = ComputeStatistics(g, entry.Draws, window)
	if err != nil {
		return models.Statistics{}, err
	}
	s.mu.Lock()
	entry.Stats[window] = stats
	s.mu.Unlock()
	return stats, nil
}

// reference returns the draw a chain is checked against. An unknown contest
// is reported as ErrNoReference; load failures are returned as they are.
func (s *AnalysisService) reference(g models.Game, concurso int) (*models.Draw, error) {
	ref, err := s.Draw(g, concurso)
	if errors.Is(err, ErrDrawNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrNoReference, err)
	}
	return ref, err
}

// clampWindow maps a requested hot/cold window onto the value
// ComputeStatistics would use, so equivalent requests share a cache entry.
func clampWindow(window, draws int) int {
	if window <= 0 {
		window = defaultWindow
	}
	if window > draws {
		window = draws
	}
	return window
}

// candidates returns the cards an analysis starts from: the pre-filtered CSV
// when configured and present, otherwise random cards seeded by the contest so
// the same analysis can be reproduced (and exported) later.
func (s *AnalysisService) candidates(g models.Game, concurso int) ([]models.Card, error) {
	if s.opts.CandidatesCSV != "" && g.Slug == models.Lotofacil.Slug {
		if _, err := os.Stat(s.opts.CandidatesCSV); err == nil {
			return LoadCandidateCards(s.opts.CandidatesCSV, g)
		}
	}
	rng := rand.New(rand.NewSource(int64(concurso)))
	return RandomCards(g, s.opts.AnalysisCandidates, rng), nil
}

// Analyze runs the default filter chain over the candidate cards, using the
// given contest as reference draw.
func (s *AnalysisService) Analyze(g models.Game, concurso int) (*models.AnalysisResult, error) {
	ref, err := s.reference(g, concurso)
	if err != nil {
		return nil, err
	}
	cards, err := s.candidates(g, concurso)
	if err != nil {
		return nil, err
	}
	result, err := ApplyFilters(g, cards, ref, models.DefaultFilterConfig(g))
	if err != nil {
		return nil, err
	}

	out := &models.AnalysisResult{
		Jogo:           g.Slug,
		Concurso:       concurso,
		TotalInicial:   result.Total,
		TotalAprovados: len(result.Approved),
		SomasAprovadas: make([]int, len(result.Approved)),
		ParesAprovados: make([]int, len(result.Approved)),
		Rejeitados:     result.Rejections,
		Aprovados:      result.Approved,
	}
	out.PercentualAprovados = math.Round(float64(out.TotalAprovados)/float64(out.TotalInicial)*10000) / 100
	for i, c := range result.Approved {
		out.SomasAprovadas[i] = c.Sum()
		out.ParesAprovados[i] = c.Evens()
	}
	logger.Infof("Analysis %s %d: %d/%d approved", g.Slug, concurso, out.TotalAprovados, out.TotalInicial)
	return out, nil
}

// FilterCards validates user supplied cards and runs them through the chain
// with cfg against the given contest.
func (s *AnalysisService) FilterCards(g models.Game, numbers [][]int, concurso int, cfg models.FilterConfig) (*FilterResult, error) {
	if len(numbers) == 0 {
		return nil, ErrNoCandidates
	}
	cards := make([]models.Card, len(numbers))
	for i, n := range numbers {
		if err := g.ValidateCard(n); err != nil {
			return nil, fmt.Errorf("%w: cartão %d: %v", ErrInvalidPreferences, i+1, err)
		}
		cards[i] = models.NewCard(n)
	}
	ref, err := s.reference(g, concurso)
	if err != nil {
		return nil, err
	}
	return ApplyFilters(g, cards, ref, cfg)
}

// Generate produces cards with the weighted generator using the game's
// statistics over the default window.
func (s *AnalysisService) Generate(g models.Game, prefs models.GeneratorPreferences) ([]models.GeneratedCard, error) {
	stats, err := s.Statistics(g, 0)
	if err != nil {
		return nil, err
	}
	seed := time.Now().UnixNano()
	if prefs.Seed != nil {
		seed = *prefs.Seed
	}
	return GenerateBatch(g, prefs, &stats, rand.New(rand.NewSource(seed)))
}

// Reload drops the cached draws of a game so they are read again.
func (s *AnalysisService) Reload(g models.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, g.Slug)
	logger.Infof("Cleared cache for game: %s", g.Slug)
}

// EvictStale removes cache entries not accessed within ttl.
func (s *AnalysisService) EvictStale(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for slug, entry := range s.cache {
		if time.Since(entry.LastAccess) > ttl {
			logger.Infof("Evicting cached draws of %s (loaded %s)", slug, entry.LoadedAt.Format(time.RFC3339))
			delete(s.cache, slug)
			evicted++
		}
	}
	return evicted
}

// MergePreferences fills unset fields of req with the game's defaults. The
// default parity and sum targets only apply to cards of the default size.
func MergePreferences(g models.Game, req models.GeneratorPreferences) models.GeneratorPreferences {
	def := models.DefaultPreferences(g)
	out := req
	if out.Quantidade == 0 {
		out.Quantidade = def.Quantidade
	}
	if out.Tamanho == 0 {
		out.Tamanho = def.Tamanho
	}
	if out.PesoQuentes == 0 {
		out.PesoQuentes = def.PesoQuentes
	}
	if out.PesoFrias == 0 {
		out.PesoFrias = def.PesoFrias
	}
	if out.PesoAfinidade == 0 {
		out.PesoAfinidade = def.PesoAfinidade
	}
	if out.MaxTentativas == 0 {
		out.MaxTentativas = def.MaxTentativas
	}
	if out.Tamanho == g.CardSize {
		if out.ParesMax == 0 {
			out.ParesMin, out.ParesMax = def.ParesMin, def.ParesMax
		}
		if out.SomaMax == 0 {
			out.SomaMin, out.SomaMax = def.SomaMin, def.SomaMax
		}
		if out.MaxSequencia == 0 {
			out.MaxSequencia = def.MaxSequencia
		}
	}
	return out
}
