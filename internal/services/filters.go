package services

import (
	"errors"

	"loterias/internal/models"
)

var (
	ErrNoCandidates = errors.New("nenhum cartão candidato para filtrar")
	ErrNoReference  = errors.New("concurso de referência ausente")
)

// FilterResult is the outcome of a pass of the filter chain.
type FilterResult struct {
	Total      int
	Approved   []models.Card
	Rejections map[string]int // stage name -> cards removed at that stage
}

// filterContext carries what every predicate needs besides the card.
type filterContext struct {
	game models.Game
	cfg  models.FilterConfig
	ref  []int
}

type filterStage struct {
	name string
	keep func(c models.Card, fc *filterContext) bool
}

// filterChain is the fixed order in which stages are applied. Every stage is
// a pure predicate, so the approved set does not depend on this order.
var filterChain = []filterStage{
	{"grade", keepGrid},
	{"sequencia", keepSequence},
	{"ausentes", keepAbsentGap},
	{"miolo", keepMiolo},
	{"soma", keepSum},
	{"paridade", keepParity},
	{"repetidos", keepRepeated},
	{"primos", keepPrimes},
	{"multiplos3", keepMultiplesOf3},
	{"fibonacci", keepFibonacci},
}

// FilterStages lists the stage names in application order.
func FilterStages() []string {
	names := make([]string, len(filterChain))
	for i, s := range filterChain {
		names[i] = s.name
	}
	return names
}

// ApplyFilters runs the candidate cards through the whole chain against the
// reference draw. It never returns partial results: either the full approved
// set or an error.
func ApplyFilters(g models.Game, cards []models.Card, ref *models.Draw, cfg models.FilterConfig) (*FilterResult, error) {
	if len(cards) == 0 {
		return nil, ErrNoCandidates
	}
	if ref == nil || len(ref.Numbers) == 0 {
		return nil, ErrNoReference
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fc := &filterContext{game: g, cfg: cfg, ref: ref.Numbers}
	result := &FilterResult{
		Total:      len(cards),
		Rejections: make(map[string]int, len(filterChain)),
	}

	surviving := cards
	for _, stage := range filterChain {
		next := make([]models.Card, 0, len(surviving))
		for _, c := range surviving {
			if stage.keep(c, fc) {
				next = append(next, c)
			}
		}
		result.Rejections[stage.name] = len(surviving) - len(next)
		surviving = next
	}
	result.Approved = surviving
	return result, nil
}

// PassesAll reports whether a single card survives every stage.
func PassesAll(g models.Game, c models.Card, ref []int, cfg models.FilterConfig) bool {
	fc := &filterContext{game: g, cfg: cfg, ref: ref}
	for _, stage := range filterChain {
		if !stage.keep(c, fc) {
			return false
		}
	}
	return true
}

func between(v, min, max int) bool {
	return v >= min && v <= max
}

func keepGrid(c models.Card, fc *filterContext) bool {
	empty, full := gridLines(fc.game, c.Numbers)
	return empty <= fc.cfg.MaxLinhasVazias && full <= fc.cfg.MaxLinhasCheias
}

func keepSequence(c models.Card, fc *filterContext) bool {
	return longestRun(c.Numbers) <= fc.cfg.MaxSequencia
}

func keepAbsentGap(c models.Card, fc *filterContext) bool {
	return longestAbsentRun(fc.game, c.Numbers) <= fc.cfg.MaxAusentesSeguidos
}

func keepMiolo(c models.Card, fc *filterContext) bool {
	return between(countMiolo(fc.game, c.Numbers), fc.cfg.MioloMin, fc.cfg.MioloMax)
}

func keepSum(c models.Card, fc *filterContext) bool {
	return between(c.Sum(), fc.cfg.SomaMin, fc.cfg.SomaMax)
}

func keepParity(c models.Card, fc *filterContext) bool {
	return between(c.Evens(), fc.cfg.ParesMin, fc.cfg.ParesMax)
}

func keepRepeated(c models.Card, fc *filterContext) bool {
	return between(overlap(c.Numbers, fc.ref), fc.cfg.RepetidosMin, fc.cfg.RepetidosMax)
}

func keepPrimes(c models.Card, fc *filterContext) bool {
	return between(countPrimes(c.Numbers), fc.cfg.PrimosMin, fc.cfg.PrimosMax)
}

func keepMultiplesOf3(c models.Card, fc *filterContext) bool {
	return between(countMultiplesOf3(c.Numbers), fc.cfg.Multiplos3Min, fc.cfg.Multiplos3Max)
}

func keepFibonacci(c models.Card, fc *filterContext) bool {
	return between(countFibonacci(c.Numbers), fc.cfg.FibonacciMin, fc.cfg.FibonacciMax)
}
