package games

import (
	"errors"
	"math"
	"strconv"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

var ErrInvalidPlinkoParams = errors.New("games: plinko needs risk low|medium|high and rows 8|12|16")

// plinkoTables: risco -> linhas -> multiplicador por bucket (simétrica,
// len = rows+1). Valores fixos publicados na tabela de payout do jogo.
var plinkoTables = map[string]map[int][]float64{
	"low": {
		8:  {5.6, 2.1, 1.1, 1.0, 0.5, 1.0, 1.1, 2.1, 5.6},
		12: {10, 3, 1.6, 1.4, 1.1, 1.0, 0.5, 1.0, 1.1, 1.4, 1.6, 3, 10},
		16: {16, 9, 2, 1.4, 1.4, 1.2, 1.1, 1.0, 0.5, 1.0, 1.1, 1.2, 1.4, 1.4, 2, 9, 16},
	},
	"medium": {
		8:  {13, 3, 1.3, 0.7, 0.4, 0.7, 1.3, 3, 13},
		12: {33, 11, 4, 2, 1.1, 0.6, 0.3, 0.6, 1.1, 2, 4, 11, 33},
		16: {110, 41, 10, 5, 3, 1.5, 1.0, 0.5, 0.3, 0.5, 1.0, 1.5, 3, 5, 10, 41, 110},
	},
	"high": {
		8:  {29, 4, 1.5, 0.3, 0.2, 0.3, 1.5, 4, 29},
		12: {170, 24, 8.1, 2, 0.7, 0.2, 0.2, 0.2, 0.7, 2, 8.1, 24, 170},
		16: {1000, 130, 26, 9, 4, 2, 0.2, 0.2, 0.2, 0.2, 0.2, 2, 4, 9, 26, 130, 1000},
	},
}

// PlinkoData é o payload do outcome de plinko.
type PlinkoData struct {
	Path   []int  `json:"path"` // 0 = esquerda, 1 = direita, um por linha
	Bucket int    `json:"bucket"`
	Risk   string `json:"risk"`
	Rows   int    `json:"rows"`
}

// resolvePlinko: um bit independente por linha; o bucket final é a soma
// dos desvios à direita e indexa a tabela de payout do risco.
func resolvePlinko(c fair.Commitment, p Params, d *control.Directive) (*Outcome, error) {
	risk := p.Risk
	if risk == "" {
		risk = "low"
	}
	rows := p.Rows
	if rows == 0 {
		rows = 8
	}
	table, ok := plinkoTables[risk][rows]
	if !ok {
		return nil, ErrInvalidPlinkoParams
	}

	path := make([]int, rows)
	bucket := 0
	for row := 0; row < rows; row++ {
		bit, err := fair.PathBit(c.ServerSecret, c.ClientSeed, c.Nonce, row)
		if err != nil {
			return nil, err
		}
		path[row] = bit
		bucket += bit
	}

	if d == nil {
		mult := table[bucket]
		return &Outcome{
			Game:       GamePlinko,
			Win:        mult >= 1.0,
			Multiplier: mult,
			Data:       &PlinkoData{Path: path, Bucket: bucket, Risk: risk, Rows: rows},
		}, nil
	}

	// dirigido: escolhe o bucket compatível com a diretiva e sintetiza
	// um caminho com a ordem dos desvios randomizada, pra duas rodadas
	// forçadas não saírem mecanicamente idênticas
	var wantBucket int
	var miss float64
	switch d.Type {
	case control.OutcomeLose:
		wantBucket = nearestBucket(table, bucket, func(m float64) bool { return m < 1.0 })
	case control.OutcomeWin:
		want, err := directiveTarget(d, c)
		if err != nil {
			return nil, err
		}
		if want > 0 {
			wantBucket = bucketForTarget(table, want)
			miss = missOf(table[wantBucket], want)
		} else {
			wantBucket = nearestBucket(table, bucket, func(m float64) bool { return m >= 1.0 })
		}
	default:
		wantBucket = bucket
	}

	fpath, err := synthesizePath(c, rows, wantBucket)
	if err != nil {
		return nil, err
	}
	mult := table[wantBucket]
	return &Outcome{
		Game:       GamePlinko,
		Win:        mult >= 1.0,
		Multiplier: mult,
		Forced:     true,
		TargetMiss: miss,
		Data:       &PlinkoData{Path: fpath, Bucket: wantBucket, Risk: risk, Rows: rows},
	}, nil
}

// bucketForTarget acha o bucket cujo multiplicador fica mais perto do
// alvo pedido. Empate resolve pro bucket mais central (mais verossímil).
func bucketForTarget(table []float64, target float64) int {
	best := 0
	bestDiff := math.Inf(1)
	center := float64(len(table)-1) / 2
	for i, m := range table {
		diff := math.Abs(m - target)
		if diff < bestDiff || (diff == bestDiff && math.Abs(float64(i)-center) < math.Abs(float64(best)-center)) {
			best = i
			bestDiff = diff
		}
	}
	return best
}

// nearestBucket acha o bucket mais próximo do natural que satisfaz o
// predicado (perturbação mínima do resultado justo).
func nearestBucket(table []float64, from int, ok func(float64) bool) int {
	for delta := 0; delta < len(table); delta++ {
		for _, i := range []int{from - delta, from + delta} {
			if i >= 0 && i < len(table) && ok(table[i]) {
				return i
			}
		}
	}
	return from
}

// synthesizePath monta um caminho com exatamente `ones` desvios à
// direita, espalhados por posições sorteadas do commitment.
func synthesizePath(c fair.Commitment, rows, ones int) ([]int, error) {
	path := make([]int, rows)
	if ones <= 0 {
		return path, nil
	}
	if ones >= rows {
		for i := range path {
			path[i] = 1
		}
		return path, nil
	}
	idx, err := fair.DistinctIndices(c.ServerSecret, c.ClientSeed, c.Nonce, rows, ones, "fpath:"+strconv.Itoa(ones))
	if err != nil {
		return nil, err
	}
	for _, i := range idx {
		path[i] = 1
	}
	return path, nil
}
