package services

import "loterias/internal/models"

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

var fibonacciSet = func() map[int]bool {
	set := map[int]bool{0: true, 1: true}
	for a, b := 1, 2; b <= 100; a, b = b, a+b {
		set[b] = true
	}
	return set
}()

func isFibonacci(n int) bool {
	return fibonacciSet[n]
}

func countWhere(numbers []int, pred func(int) bool) int {
	count := 0
	for _, n := range numbers {
		if pred(n) {
			count++
		}
	}
	return count
}

func countPrimes(numbers []int) int {
	return countWhere(numbers, isPrime)
}

func countMultiplesOf3(numbers []int) int {
	// 0 is not counted; it only exists in Lotomania.
	return countWhere(numbers, func(n int) bool { return n != 0 && n%3 == 0 })
}

func countFibonacci(numbers []int) int {
	return countWhere(numbers, isFibonacci)
}

func countMiolo(g models.Game, numbers []int) int {
	return countWhere(numbers, g.IsMiolo)
}

// longestRun returns the length of the longest run of consecutive numbers.
// numbers must be sorted.
func longestRun(numbers []int) int {
	if len(numbers) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(numbers); i++ {
		if numbers[i] == numbers[i-1]+1 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	return best
}

// longestAbsentRun returns the longest run of consecutive in-range numbers
// that are not part of the set.
func longestAbsentRun(g models.Game, numbers []int) int {
	present := toSet(numbers)
	best, run := 0, 0
	for n := g.MinNumber; n <= g.MaxNumber; n++ {
		if present[n] {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}

// overlap counts the numbers present in both slices.
func overlap(a, b []int) int {
	set := toSet(b)
	return countWhere(a, func(n int) bool { return set[n] })
}

func toSet(numbers []int) map[int]bool {
	set := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set
}

// gridLines counts the empty and the full rows and columns a set of numbers
// leaves on the volante.
func gridLines(g models.Game, numbers []int) (empty, full int) {
	rows := make([]int, g.GridRows())
	cols := make([]int, g.GridCols)
	for _, n := range numbers {
		r, c := g.Cell(n)
		rows[r]++
		cols[c]++
	}
	for r, count := range rows {
		cells := g.GridCols
		if last := g.Universe() - r*g.GridCols; last < cells {
			cells = last
		}
		switch {
		case count == 0:
			empty++
		case count == cells:
			full++
		}
	}
	for c, count := range cols {
		cells := g.GridRows()
		if c >= g.Universe()%g.GridCols && g.Universe()%g.GridCols != 0 {
			cells--
		}
		switch {
		case count == 0:
			empty++
		case count == cells:
			full++
		}
	}
	return empty, full
}
