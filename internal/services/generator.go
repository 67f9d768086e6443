package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/logger"

	"loterias/internal/models"
)

var ErrInvalidPreferences = errors.New("preferências de geração inválidas")

// maxBatch caps how many cards a single request can generate.
const maxBatch = 50

// GenerateSmartCard draws one card by weighted rejection sampling. Numbers are
// weighted by the preferences (hot, cold, affinity partners), a draw is
// accepted when it meets the parity, sum and consecutive-run targets, and
// after MaxTentativas rejected draws a uniformly random card is returned.
// stats may be nil, in which case every number weighs the same.
func GenerateSmartCard(g models.Game, prefs models.GeneratorPreferences, stats *models.Statistics, rng *rand.Rand) (models.GeneratedCard, error) {
	size := prefs.Tamanho
	if size == 0 {
		size = g.CardSize
	}
	pool, fixed, err := candidatePool(g, prefs, size)
	if err != nil {
		return models.GeneratedCard{}, err
	}

	attempts := prefs.MaxTentativas
	if attempts <= 0 {
		attempts = 200
	}
	base := baseWeights(g, prefs, stats)
	partners := affinityPartners(prefs, stats)

	for try := 1; try <= attempts; try++ {
		numbers := weightedDraw(pool, fixed, size, base, partners, prefs.PesoAfinidade, rng)
		if meetsTargets(numbers, prefs) {
			return finishCard(g, numbers, try, false, rng), nil
		}
	}

	// Unconstrained fallback.
	shuffled := append([]int(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	numbers := append(append([]int(nil), fixed...), shuffled[:size-len(fixed)]...)
	return finishCard(g, numbers, attempts, true, rng), nil
}

// GenerateBatch produces n cards, skipping duplicates where the pool allows.
func GenerateBatch(g models.Game, prefs models.GeneratorPreferences, stats *models.Statistics, rng *rand.Rand) ([]models.GeneratedCard, error) {
	n := prefs.Quantidade
	if n <= 0 {
		n = 1
	}
	if n > maxBatch {
		return nil, fmt.Errorf("%w: no máximo %d cartões por vez", ErrInvalidPreferences, maxBatch)
	}
	seen := make(map[string]bool, n)
	cards := make([]models.GeneratedCard, 0, n)
	for tries := 0; len(cards) < n && tries < n*10; tries++ {
		c, err := GenerateSmartCard(g, prefs, stats, rng)
		if err != nil {
			return nil, err
		}
		if seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		cards = append(cards, c)
	}
	if len(cards) < n {
		logger.Warningf("%s: generated %d of %d requested cards, the free numbers allow no more distinct cards", g.Name, len(cards), n)
	}
	return cards, nil
}

// RandomCards draws n uniformly random cards of the game's default size.
func RandomCards(g models.Game, n int, rng *rand.Rand) []models.Card {
	cards := make([]models.Card, n)
	for i := range cards {
		perm := rng.Perm(g.Universe())[:g.CardSize]
		for j := range perm {
			perm[j] += g.MinNumber
		}
		cards[i] = models.NewCard(perm)
	}
	return cards
}

// candidatePool validates the fixed and excluded numbers and returns the
// numbers still free to be drawn.
func candidatePool(g models.Game, prefs models.GeneratorPreferences, size int) (pool, fixed []int, err error) {
	if size < g.DrawSize || size > g.MaxCardSize {
		return nil, nil, fmt.Errorf("%w: tamanho %d fora de %d-%d", ErrInvalidPreferences, size, g.DrawSize, g.MaxCardSize)
	}
	excluded := make(map[int]bool, len(prefs.Excluidos))
	for _, n := range prefs.Excluidos {
		if !g.InRange(n) {
			return nil, nil, fmt.Errorf("%w: dezena excluída %d fora do intervalo", ErrInvalidPreferences, n)
		}
		excluded[n] = true
	}
	chosen := make(map[int]bool, len(prefs.Fixos))
	for _, n := range prefs.Fixos {
		if !g.InRange(n) || excluded[n] || chosen[n] {
			return nil, nil, fmt.Errorf("%w: dezena fixa %d inválida", ErrInvalidPreferences, n)
		}
		chosen[n] = true
		fixed = append(fixed, n)
	}
	if len(fixed) > size {
		return nil, nil, fmt.Errorf("%w: %d dezenas fixas para um cartão de %d", ErrInvalidPreferences, len(fixed), size)
	}
	for n := g.MinNumber; n <= g.MaxNumber; n++ {
		if !excluded[n] && !chosen[n] {
			pool = append(pool, n)
		}
	}
	if len(pool)+len(fixed) < size {
		return nil, nil, fmt.Errorf("%w: dezenas disponíveis insuficientes", ErrInvalidPreferences)
	}
	return pool, fixed, nil
}

func baseWeights(g models.Game, prefs models.GeneratorPreferences, stats *models.Statistics) map[int]float64 {
	w := make(map[int]float64, g.Universe())
	for n := g.MinNumber; n <= g.MaxNumber; n++ {
		w[n] = 1
	}
	if stats == nil {
		return w
	}
	if prefs.UsarQuentes && prefs.PesoQuentes > 0 {
		for _, n := range stats.Quentes {
			w[n] *= prefs.PesoQuentes
		}
	}
	if prefs.UsarFrias && prefs.PesoFrias > 0 {
		for _, n := range stats.Frias {
			w[n] *= prefs.PesoFrias
		}
	}
	return w
}

func affinityPartners(prefs models.GeneratorPreferences, stats *models.Statistics) map[int][]int {
	partners := make(map[int][]int)
	pairs := prefs.Pares
	if prefs.UsarAfinidades && stats != nil {
		for _, a := range stats.Afinidades {
			pairs = append(pairs, [2]int{a.A, a.B})
		}
	}
	for _, p := range pairs {
		partners[p[0]] = append(partners[p[0]], p[1])
		partners[p[1]] = append(partners[p[1]], p[0])
	}
	return partners
}

// weightedDraw samples size-len(fixed) numbers from pool without replacement.
// Each pick boosts the weight of its affinity partners.
func weightedDraw(pool, fixed []int, size int, base map[int]float64, partners map[int][]int, bonus float64, rng *rand.Rand) []int {
	weights := make(map[int]float64, len(pool))
	for _, n := range pool {
		weights[n] = base[n]
	}
	boost := func(n int) {
		if bonus <= 0 {
			return
		}
		for _, p := range partners[n] {
			if _, ok := weights[p]; ok {
				weights[p] *= bonus
			}
		}
	}

	remaining := append([]int(nil), pool...)
	numbers := append([]int(nil), fixed...)
	for _, n := range fixed {
		boost(n)
	}
	for len(numbers) < size {
		total := 0.0
		for _, n := range remaining {
			total += weights[n]
		}
		r := rng.Float64() * total
		idx := len(remaining) - 1
		for i, n := range remaining {
			r -= weights[n]
			if r < 0 {
				idx = i
				break
			}
		}
		picked := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		delete(weights, picked)
		numbers = append(numbers, picked)
		boost(picked)
	}
	sort.Ints(numbers)
	return numbers
}

func meetsTargets(numbers []int, prefs models.GeneratorPreferences) bool {
	c := models.Card{Numbers: numbers}
	if prefs.ParesMax > 0 && !between(c.Evens(), prefs.ParesMin, prefs.ParesMax) {
		return false
	}
	if prefs.SomaMax > 0 && !between(c.Sum(), prefs.SomaMin, prefs.SomaMax) {
		return false
	}
	if prefs.MaxSequencia > 0 && longestRun(numbers) > prefs.MaxSequencia {
		return false
	}
	return true
}

func finishCard(g models.Game, numbers []int, attempts int, fallback bool, rng *rand.Rand) models.GeneratedCard {
	card := models.NewCard(numbers)
	out := models.GeneratedCard{
		Card:       card,
		Soma:       card.Sum(),
		Pares:      card.Evens(),
		Tentativas: attempts,
		Aleatorio:  fallback,
	}
	if g.TrevoCount > 0 {
		trevos := rng.Perm(g.TrevoMax)[:g.TrevoCount]
		for i := range trevos {
			trevos[i]++
		}
		sort.Ints(trevos)
		out.Trevos = trevos
	}
	return out
}
