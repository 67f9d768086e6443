package services

import (
	"errors"
	"math"
	"sort"

	"loterias/internal/models"
)

var ErrNoDraws = errors.New("nenhum concurso carregado")

const (
	defaultWindow      = 20
	movingAverageWidth = 10
	topAffinities      = 20
)

// hotColdSize is how many numbers are reported as hot and as cold.
func hotColdSize(g models.Game) int {
	if k := g.DrawSize * 2 / 3; k > 5 {
		return k
	}
	return 5
}

// ComputeStatistics derives every descriptive statistic from draws, which
// must be sorted by contest. window limits the hot/cold analysis to the most
// recent draws; zero or out-of-range values fall back to a default.
func ComputeStatistics(g models.Game, draws []models.Draw, window int) (models.Statistics, error) {
	if len(draws) == 0 {
		return models.Statistics{}, ErrNoDraws
	}
	window = clampWindow(window, len(draws))

	stats := models.Statistics{
		Jogo:             g.Slug,
		TotalConcursos:   len(draws),
		PrimeiroConcurso: draws[0].Concurso,
		UltimoConcurso:   draws[len(draws)-1].Concurso,
		Janela:           window,
		Paridade:         make(map[int]int),
		Miolo:            make(map[int]int),
		Repetidos:        make(map[int]int),
		Sequencias:       make(map[int]int),
		Primos:           make(map[int]int),
		Multiplos3:       make(map[int]int),
		Fibonacci:        make(map[int]int),
	}

	sums := make([]int, len(draws))
	for i, d := range draws {
		sorted := sortedCopy(d.Numbers)
		card := models.Card{Numbers: sorted}
		sums[i] = card.Sum()
		stats.Paridade[card.Evens()]++
		stats.Miolo[countMiolo(g, sorted)]++
		stats.Sequencias[longestRun(sorted)]++
		stats.Primos[countPrimes(sorted)]++
		stats.Multiplos3[countMultiplesOf3(sorted)]++
		stats.Fibonacci[countFibonacci(sorted)]++
		if i > 0 {
			stats.Repetidos[overlap(sorted, draws[i-1].Numbers)]++
		}
	}

	stats.Frequencia = frequencies(g.MinNumber, g.MaxNumber, draws, func(d models.Draw) []int { return d.Numbers })
	stats.Quentes, stats.Frias = hotAndCold(g, draws[len(draws)-window:])
	stats.Somas = summarizeSums(sums)
	stats.MediaMovelSomas = movingAverage(sums, movingAverageWidth)
	stats.Afinidades = affinities(g, draws, topAffinities)
	stats.Secas = secas(g, draws)
	if g.TrevoCount > 0 {
		stats.Trevos = frequencies(1, g.TrevoMax, draws, func(d models.Draw) []int { return d.Trevos })
	}
	return stats, nil
}

func sortedCopy(numbers []int) []int {
	out := append([]int(nil), numbers...)
	sort.Ints(out)
	return out
}

// frequencies counts occurrences of every number in [min, max], most frequent
// first.
func frequencies(min, max int, draws []models.Draw, pick func(models.Draw) []int) []models.NumberFrequency {
	counts := make([]int, max-min+1)
	for _, d := range draws {
		for _, n := range pick(d) {
			if n >= min && n <= max {
				counts[n-min]++
			}
		}
	}
	out := make([]models.NumberFrequency, len(counts))
	for i, c := range counts {
		out[i] = models.NumberFrequency{
			Numero:     min + i,
			Vezes:      c,
			Percentual: math.Round(float64(c)/float64(len(draws))*10000) / 100,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Vezes > out[j].Vezes })
	return out
}

// hotAndCold ranks numbers by frequency within recent draws.
func hotAndCold(g models.Game, recent []models.Draw) (hot, cold []int) {
	freq := frequencies(g.MinNumber, g.MaxNumber, recent, func(d models.Draw) []int { return d.Numbers })
	k := hotColdSize(g)
	if k > len(freq)/2 {
		k = len(freq) / 2
	}
	for _, f := range freq[:k] {
		hot = append(hot, f.Numero)
	}
	// Least frequent first, ties broken by the lower number.
	tail := append([]models.NumberFrequency(nil), freq[len(freq)-k:]...)
	sort.SliceStable(tail, func(i, j int) bool {
		if tail[i].Vezes != tail[j].Vezes {
			return tail[i].Vezes < tail[j].Vezes
		}
		return tail[i].Numero < tail[j].Numero
	})
	for _, f := range tail {
		cold = append(cold, f.Numero)
	}
	return hot, cold
}

func summarizeSums(sums []int) models.SumSummary {
	s := models.SumSummary{Min: sums[0], Max: sums[0], Histogram: make(map[int]int)}
	total := 0
	for _, v := range sums {
		total += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		s.Histogram[v/10*10]++
	}
	s.Media = float64(total) / float64(len(sums))
	var variance float64
	for _, v := range sums {
		d := float64(v) - s.Media
		variance += d * d
	}
	s.Desvio = math.Sqrt(variance / float64(len(sums)))
	s.Media = math.Round(s.Media*100) / 100
	s.Desvio = math.Round(s.Desvio*100) / 100
	return s
}

// movingAverage is the simple moving average of values over width points.
// Fewer values than width yield an empty series.
func movingAverage(values []int, width int) []float64 {
	if width <= 0 || len(values) < width {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-width+1)
	acc := 0
	for i, v := range values {
		acc += v
		if i >= width {
			acc -= values[i-width]
		}
		if i >= width-1 {
			out = append(out, math.Round(float64(acc)/float64(width)*100)/100)
		}
	}
	return out
}

// affinities returns the limit pairs drawn together most often.
func affinities(g models.Game, draws []models.Draw, limit int) []models.PairAffinity {
	size := g.Universe()
	counts := make([]int, size*size)
	for _, d := range draws {
		nums := sortedCopy(d.Numbers)
		for i := 0; i < len(nums); i++ {
			for j := i + 1; j < len(nums); j++ {
				counts[(nums[i]-g.MinNumber)*size+(nums[j]-g.MinNumber)]++
			}
		}
	}
	var pairs []models.PairAffinity
	for a := 0; a < size; a++ {
		for b := a + 1; b < size; b++ {
			if c := counts[a*size+b]; c > 0 {
				pairs = append(pairs, models.PairAffinity{A: a + g.MinNumber, B: b + g.MinNumber, Vezes: c})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Vezes > pairs[j].Vezes })
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// secas computes, for every number, the current gap since it was last drawn
// and the longest gap ever observed, ordered by current gap.
func secas(g models.Game, draws []models.Draw) []models.Seca {
	size := g.Universe()
	last := make([]int, size)
	longest := make([]int, size)
	for i := range last {
		last[i] = -1
	}
	for i, d := range draws {
		for _, n := range d.Numbers {
			if !g.InRange(n) {
				continue
			}
			idx := n - g.MinNumber
			if gap := i - last[idx] - 1; gap > longest[idx] {
				longest[idx] = gap
			}
			last[idx] = i
		}
	}
	out := make([]models.Seca, size)
	for idx := range out {
		current := len(draws) - 1 - last[idx]
		if current > longest[idx] {
			longest[idx] = current
		}
		out[idx] = models.Seca{Numero: idx + g.MinNumber, Atual: current, MaiorSeca: longest[idx]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Atual > out[j].Atual })
	return out
}
