package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Game describes one lottery modality: its number range, how many numbers are
// drawn, how big a card may be and how the numbers are laid out on the volante.
type Game struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	MinNumber   int      `json:"minNumber"`
	MaxNumber   int      `json:"maxNumber"`
	DrawSize    int      `json:"drawSize"`
	CardSize    int      `json:"cardSize"`
	MaxCardSize int      `json:"maxCardSize"`
	TrevoCount  int      `json:"trevoCount,omitempty"`
	TrevoMax    int      `json:"trevoMax,omitempty"`
	GridCols    int      `json:"gridCols"`
	Sources     []string `json:"-"` // candidate file names, tried in order
}

var (
	Lotofacil = Game{
		Slug: "lotofacil", Name: "Lotofácil",
		MinNumber: 1, MaxNumber: 25, DrawSize: 15, CardSize: 15, MaxCardSize: 20, GridCols: 5,
		Sources: []string{"lotofacil.csv", "Lotofácil.xlsx", "lotofacil.xlsx", "Lotofacil.xlsx", "resultados_lotofacil.xlsx"},
	}
	Quina = Game{
		Slug: "quina", Name: "Quina",
		MinNumber: 1, MaxNumber: 80, DrawSize: 5, CardSize: 5, MaxCardSize: 15, GridCols: 10,
		Sources: []string{"quina.csv", "Quina.xlsx", "quina.xlsx", "resultados_quina.xlsx"},
	}
	MegaSena = Game{
		Slug: "megasena", Name: "Mega-Sena",
		MinNumber: 1, MaxNumber: 60, DrawSize: 6, CardSize: 6, MaxCardSize: 20, GridCols: 10,
		Sources: []string{"megasena.csv", "Mega-Sena.xlsx", "megasena.xlsx", "Mega Sena.xlsx", "resultados_megasena.xlsx"},
	}
	MaisMilionaria = Game{
		Slug: "maismilionaria", Name: "+Milionária",
		MinNumber: 1, MaxNumber: 50, DrawSize: 6, CardSize: 6, MaxCardSize: 12, GridCols: 10,
		TrevoCount: 2, TrevoMax: 6,
		Sources: []string{"maismilionaria.csv", "+Milionária.xlsx", "maismilionaria.xlsx", "Mais Milionaria.xlsx"},
	}
	Lotomania = Game{
		Slug: "lotomania", Name: "Lotomania",
		MinNumber: 0, MaxNumber: 99, DrawSize: 20, CardSize: 50, MaxCardSize: 50, GridCols: 10,
		Sources: []string{"lotomania.csv", "Lotomania.xlsx", "lotomania.xlsx", "resultados_lotomania.xlsx"},
	}
)

// Games lists every supported modality in display order.
var Games = []Game{Lotofacil, Quina, MegaSena, MaisMilionaria, Lotomania}

// GameBySlug looks a game up by its URL slug.
func GameBySlug(slug string) (Game, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, g := range Games {
		if g.Slug == slug {
			return g, true
		}
	}
	return Game{}, false
}

// Universe is the count of numbers a card can be drawn from.
func (g Game) Universe() int {
	return g.MaxNumber - g.MinNumber + 1
}

// InRange reports whether n is a valid main number for the game.
func (g Game) InRange(n int) bool {
	return n >= g.MinNumber && n <= g.MaxNumber
}

// GridRows is the number of rows of the volante.
func (g Game) GridRows() int {
	return (g.Universe() + g.GridCols - 1) / g.GridCols
}

// Cell returns the zero-based row and column of n on the volante.
func (g Game) Cell(n int) (row, col int) {
	idx := n - g.MinNumber
	return idx / g.GridCols, idx % g.GridCols
}

// IsMiolo reports whether n sits in the interior of the volante, i.e. not on
// its border (moldura). For Lotofácil this is the centre 3x3 block.
func (g Game) IsMiolo(n int) bool {
	row, col := g.Cell(n)
	return row > 0 && row < g.GridRows()-1 && col > 0 && col < g.GridCols-1
}

// ValidateCard checks that numbers form a card of an acceptable size for the
// game, with unique in-range values.
func (g Game) ValidateCard(numbers []int) error {
	if len(numbers) < g.DrawSize || len(numbers) > g.MaxCardSize {
		return fmt.Errorf("%s: card must have between %d and %d numbers, got %d", g.Name, g.DrawSize, g.MaxCardSize, len(numbers))
	}
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if !g.InRange(n) {
			return fmt.Errorf("%s: number %d out of range %d-%d", g.Name, n, g.MinNumber, g.MaxNumber)
		}
		if seen[n] {
			return fmt.Errorf("%s: duplicated number %d", g.Name, n)
		}
		seen[n] = true
	}
	return nil
}

// Draw is one historical contest result.
type Draw struct {
	Concurso int       `json:"concurso"`
	Data     time.Time `json:"data,omitempty"`
	Numbers  []int     `json:"dezenas"`
	Trevos   []int     `json:"trevos,omitempty"`
}

// Card is a candidate combination (cartão). Numbers are kept sorted.
type Card struct {
	Numbers []int `json:"dezenas"`
}

// NewCard copies and sorts numbers into a Card.
func NewCard(numbers []int) Card {
	c := Card{Numbers: append([]int(nil), numbers...)}
	sort.Ints(c.Numbers)
	return c
}

// Sum returns the sum of the card's numbers.
func (c Card) Sum() int {
	total := 0
	for _, n := range c.Numbers {
		total += n
	}
	return total
}

// Evens returns how many numbers of the card are even.
func (c Card) Evens() int {
	count := 0
	for _, n := range c.Numbers {
		if n%2 == 0 {
			count++
		}
	}
	return count
}

// Key renders the card as a stable string, used for de-duplication.
func (c Card) Key() string {
	parts := make([]string, len(c.Numbers))
	for i, n := range c.Numbers {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, "-")
}

// AnalysisResult is the body returned by the analisar endpoint.
type AnalysisResult struct {
	Jogo                string         `json:"jogo"`
	Concurso            int            `json:"concurso"`
	TotalInicial        int            `json:"total_inicial"`
	TotalAprovados      int            `json:"total_aprovados"`
	PercentualAprovados float64        `json:"percentual_aprovados"`
	SomasAprovadas      []int          `json:"somas_aprovadas"`
	ParesAprovados      []int          `json:"pares_aprovados"`
	Rejeitados          map[string]int `json:"rejeitados,omitempty"`
	Aprovados           []Card         `json:"-"`
}

// GeneratedCard is a card produced by the weighted generator.
type GeneratedCard struct {
	Card
	Trevos     []int `json:"trevos,omitempty"`
	Soma       int   `json:"soma"`
	Pares      int   `json:"pares"`
	Tentativas int   `json:"tentativas"`
	Aleatorio  bool  `json:"aleatorio"` // true when the constrained search gave up
}
