package models

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter is returned by FilterConfig.Validate.
var ErrInvalidFilter = errors.New("configuração de filtros inválida")

// FilterConfig holds the thresholds of the candidate filter chain. All ranges
// are inclusive.
type FilterConfig struct {
	MaxLinhasVazias     int `json:"max_linhas_vazias"`     // empty rows + columns on the volante
	MaxLinhasCheias     int `json:"max_linhas_cheias"`     // full rows + columns on the volante
	MaxSequencia        int `json:"max_sequencia"`         // longest run of consecutive numbers
	MaxAusentesSeguidos int `json:"max_ausentes_seguidos"` // longest run of consecutive absent numbers
	MioloMin            int `json:"miolo_min"`
	MioloMax            int `json:"miolo_max"`
	SomaMin             int `json:"soma_min"`
	SomaMax             int `json:"soma_max"`
	ParesMin            int `json:"pares_min"`
	ParesMax            int `json:"pares_max"`
	RepetidosMin        int `json:"repetidos_min"`
	RepetidosMax        int `json:"repetidos_max"`
	PrimosMin           int `json:"primos_min"`
	PrimosMax           int `json:"primos_max"`
	Multiplos3Min       int `json:"multiplos3_min"`
	Multiplos3Max       int `json:"multiplos3_max"`
	FibonacciMin        int `json:"fibonacci_min"`
	FibonacciMax        int `json:"fibonacci_max"`
}

var defaultFilters = map[string]FilterConfig{
	Lotofacil.Slug: {
		MaxLinhasVazias: 0, MaxLinhasCheias: 2, MaxSequencia: 8, MaxAusentesSeguidos: 4,
		MioloMin: 3, MioloMax: 7, SomaMin: 170, SomaMax: 220, ParesMin: 6, ParesMax: 9,
		RepetidosMin: 8, RepetidosMax: 15, PrimosMin: 4, PrimosMax: 7,
		Multiplos3Min: 3, Multiplos3Max: 6, FibonacciMin: 2, FibonacciMax: 5,
	},
	Quina.Slug: {
		MaxLinhasVazias: 12, MaxLinhasCheias: 0, MaxSequencia: 2, MaxAusentesSeguidos: 40,
		MioloMin: 1, MioloMax: 5, SomaMin: 120, SomaMax: 280, ParesMin: 1, ParesMax: 4,
		RepetidosMin: 0, RepetidosMax: 1, PrimosMin: 0, PrimosMax: 3,
		Multiplos3Min: 0, Multiplos3Max: 3, FibonacciMin: 0, FibonacciMax: 2,
	},
	MegaSena.Slug: {
		MaxLinhasVazias: 9, MaxLinhasCheias: 0, MaxSequencia: 2, MaxAusentesSeguidos: 25,
		MioloMin: 1, MioloMax: 5, SomaMin: 120, SomaMax: 250, ParesMin: 2, ParesMax: 4,
		RepetidosMin: 0, RepetidosMax: 2, PrimosMin: 0, PrimosMax: 3,
		Multiplos3Min: 0, Multiplos3Max: 4, FibonacciMin: 0, FibonacciMax: 2,
	},
	MaisMilionaria.Slug: {
		MaxLinhasVazias: 11, MaxLinhasCheias: 0, MaxSequencia: 2, MaxAusentesSeguidos: 20,
		MioloMin: 1, MioloMax: 5, SomaMin: 100, SomaMax: 210, ParesMin: 2, ParesMax: 4,
		RepetidosMin: 0, RepetidosMax: 2, PrimosMin: 0, PrimosMax: 3,
		Multiplos3Min: 0, Multiplos3Max: 3, FibonacciMin: 0, FibonacciMax: 2,
	},
	Lotomania.Slug: {
		MaxLinhasVazias: 0, MaxLinhasCheias: 4, MaxSequencia: 12, MaxAusentesSeguidos: 8,
		MioloMin: 26, MioloMax: 38, SomaMin: 2100, SomaMax: 2850, ParesMin: 20, ParesMax: 30,
		RepetidosMin: 5, RepetidosMax: 15, PrimosMin: 8, PrimosMax: 17,
		Multiplos3Min: 12, Multiplos3Max: 22, FibonacciMin: 2, FibonacciMax: 9,
	},
}

// DefaultFilterConfig returns the static thresholds used for a game.
func DefaultFilterConfig(g Game) FilterConfig {
	return defaultFilters[g.Slug]
}

// Validate checks that every range is non-negative and ordered.
func (f FilterConfig) Validate() error {
	ranges := []struct {
		name     string
		min, max int
	}{
		{"miolo", f.MioloMin, f.MioloMax},
		{"soma", f.SomaMin, f.SomaMax},
		{"pares", f.ParesMin, f.ParesMax},
		{"repetidos", f.RepetidosMin, f.RepetidosMax},
		{"primos", f.PrimosMin, f.PrimosMax},
		{"multiplos3", f.Multiplos3Min, f.Multiplos3Max},
		{"fibonacci", f.FibonacciMin, f.FibonacciMax},
	}
	for _, r := range ranges {
		if r.min < 0 || r.max < 0 {
			return fmt.Errorf("%w: %s com limite negativo", ErrInvalidFilter, r.name)
		}
		if r.min > r.max {
			return fmt.Errorf("%w: %s mínimo %d maior que máximo %d", ErrInvalidFilter, r.name, r.min, r.max)
		}
	}
	if f.MaxLinhasVazias < 0 || f.MaxLinhasCheias < 0 || f.MaxSequencia < 0 || f.MaxAusentesSeguidos < 0 {
		return fmt.Errorf("%w: limites de linhas, sequência e ausentes não podem ser negativos", ErrInvalidFilter)
	}
	return nil
}

// GeneratorPreferences are the soft targets of the weighted generator. Zero
// values mean "no constraint" except where noted.
type GeneratorPreferences struct {
	Quantidade     int      `json:"quantidade"`
	Tamanho        int      `json:"tamanho"` // card size, defaults to the game's
	UsarQuentes    bool     `json:"usar_quentes"`
	UsarFrias      bool     `json:"usar_frias"`
	UsarAfinidades bool     `json:"usar_afinidades"`
	PesoQuentes    float64  `json:"peso_quentes"`
	PesoFrias      float64  `json:"peso_frias"`
	PesoAfinidade  float64  `json:"peso_afinidade"`
	Fixos          []int    `json:"fixos"`     // always included
	Excluidos      []int    `json:"excluidos"` // never included
	ParesMin       int      `json:"pares_min"`
	ParesMax       int      `json:"pares_max"`
	SomaMin        int      `json:"soma_min"`
	SomaMax        int      `json:"soma_max"`
	MaxSequencia   int      `json:"max_sequencia"`
	MaxTentativas  int      `json:"max_tentativas"`
	Seed           *int64   `json:"seed,omitempty"`
	Pares          [][2]int `json:"-"` // affinity pairs, filled from statistics
}

// DefaultPreferences returns the generator targets derived from the game's
// default filter thresholds.
func DefaultPreferences(g Game) GeneratorPreferences {
	f := DefaultFilterConfig(g)
	return GeneratorPreferences{
		Quantidade:     1,
		Tamanho:        g.CardSize,
		UsarQuentes:    true,
		UsarAfinidades: true,
		PesoQuentes:    1.5,
		PesoFrias:      1.3,
		PesoAfinidade:  1.2,
		ParesMin:       f.ParesMin,
		ParesMax:       f.ParesMax,
		SomaMin:        f.SomaMin,
		SomaMax:        f.SomaMax,
		MaxSequencia:   f.MaxSequencia,
		MaxTentativas:  200,
	}
}
