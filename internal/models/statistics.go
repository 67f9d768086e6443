package models

// NumberFrequency is how often a number was drawn.
type NumberFrequency struct {
	Numero     int     `json:"numero"`
	Vezes      int     `json:"vezes"`
	Percentual float64 `json:"percentual"`
}

// PairAffinity counts how often two numbers were drawn together.
type PairAffinity struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Vezes int `json:"vezes"`
}

// Seca is the gap, in draws, since a number last appeared.
type Seca struct {
	Numero    int `json:"numero"`
	Atual     int `json:"atual"`
	MaiorSeca int `json:"maior_seca"`
}

// SumSummary describes the distribution of draw sums.
type SumSummary struct {
	Min       int         `json:"min"`
	Max       int         `json:"max"`
	Media     float64     `json:"media"`
	Desvio    float64     `json:"desvio"`
	Histogram map[int]int `json:"histograma"` // bucket lower bound -> draws
}

// Statistics aggregates every descriptive statistic computed for a game.
type Statistics struct {
	Jogo             string            `json:"jogo"`
	TotalConcursos   int               `json:"total_concursos"`
	PrimeiroConcurso int               `json:"primeiro_concurso"`
	UltimoConcurso   int               `json:"ultimo_concurso"`
	Janela           int               `json:"janela"`
	Frequencia       []NumberFrequency `json:"frequencia"`
	Quentes          []int             `json:"quentes"`
	Frias            []int             `json:"frias"`
	Paridade         map[int]int       `json:"paridade"` // even count -> draws
	Somas            SumSummary        `json:"somas"`
	MediaMovelSomas  []float64         `json:"media_movel_somas"`
	Afinidades       []PairAffinity    `json:"afinidades"`
	Secas            []Seca            `json:"secas"`
	Miolo            map[int]int       `json:"miolo"`
	Repetidos        map[int]int       `json:"repetidos"`  // overlap with previous draw -> draws
	Sequencias       map[int]int       `json:"sequencias"` // longest run -> draws
	Primos           map[int]int       `json:"primos"`
	Multiplos3       map[int]int       `json:"multiplos3"`
	Fibonacci        map[int]int       `json:"fibonacci"`
	Trevos           []NumberFrequency `json:"trevos,omitempty"`
}
