package games

import (
	"errors"
	"math"
	"sort"
	"strconv"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

const (
	minesBoardSize = 25 // tabuleiro 5x5
	minesEdge      = 0.99
)

var (
	ErrInvalidMinesParams = errors.New("games: mines needs 1..24 mines and at least one pick inside the board")

	// minesTable[m][g] = multiplicador por revelar g gemas com m minas.
	// Pré-computada na inicialização a partir da fórmula hipergeométrica
	// com o fator da casa.
	minesTable [minesBoardSize][]float64
)

func init() {
	for m := 1; m < minesBoardSize; m++ {
		gems := minesBoardSize - m
		minesTable[m] = make([]float64, gems+1)
		mult := 1.0
		for g := 1; g <= gems; g++ {
			mult *= float64(minesBoardSize-g+1) / float64(minesBoardSize-m-g+1)
			minesTable[m][g] = round2(minesEdge * mult)
		}
	}
}

// MinesMultiplier expõe a tabela publicada (0 fora da faixa válida).
func MinesMultiplier(mineCount, gems int) float64 {
	if mineCount < 1 || mineCount >= minesBoardSize || gems < 1 || gems > minesBoardSize-mineCount {
		return 0
	}
	return minesTable[mineCount][gems]
}

// MinesData é o payload do outcome de mines.
type MinesData struct {
	Mines     []int `json:"mines"`
	Picks     []int `json:"picks"`
	Revealed  int   `json:"revealed"` // gemas reveladas com segurança
	MineCount int   `json:"mine_count"`
}

// resolveMines: o jogador entrega as casas que pretende revelar; perde
// na primeira que for mina, ganha o multiplicador da tabela se todas
// forem gemas.
func resolveMines(c fair.Commitment, p Params, d *control.Directive) (*Outcome, error) {
	mc := p.MineCount
	if mc == 0 {
		mc = 3
	}
	if mc < 1 || mc > minesBoardSize-1 || len(p.Picks) == 0 || len(p.Picks) > minesBoardSize-mc {
		return nil, ErrInvalidMinesParams
	}
	picks := make([]int, 0, len(p.Picks))
	seen := map[int]bool{}
	for _, cell := range p.Picks {
		if cell < 0 || cell >= minesBoardSize || seen[cell] {
			return nil, ErrInvalidMinesParams
		}
		seen[cell] = true
		picks = append(picks, cell)
	}

	mines, err := fair.DistinctIndices(c.ServerSecret, c.ClientSeed, c.Nonce, minesBoardSize, mc, "mine")
	if err != nil {
		return nil, err
	}

	if d == nil {
		revealed, hit := revealUntilMine(picks, mines)
		out := &Outcome{Game: GameMines, Data: &MinesData{Mines: sorted(mines), Picks: picks, Revealed: revealed, MineCount: mc}}
		if !hit {
			out.Win = true
			out.Multiplier = minesTable[mc][revealed]
		}
		return out, nil
	}

	switch d.Type {
	case control.OutcomeLose:
		// uma das casas escolhidas vira mina (sorteio decide qual);
		// as demais se espalham fora do caminho já revelado
		mines, err = forcedMineSet(c, mc, picks, true)
		if err != nil {
			return nil, err
		}
		revealed, _ := revealUntilMine(picks, mines)
		return &Outcome{
			Game:   GameMines,
			Forced: true,
			Data:   &MinesData{Mines: sorted(mines), Picks: picks, Revealed: revealed, MineCount: mc},
		}, nil

	case control.OutcomeWin:
		want, err := directiveTarget(d, c)
		if err != nil {
			return nil, err
		}
		if want > 0 {
			return forcedExactMines(c, mc, picks, want)
		}
		// win simples: minas disjuntas de todas as casas escolhidas
		mines, err = forcedMineSet(c, mc, picks, false)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Game:       GameMines,
			Win:        true,
			Multiplier: minesTable[mc][len(picks)],
			Forced:     true,
			Data:       &MinesData{Mines: sorted(mines), Picks: picks, Revealed: len(picks), MineCount: mc},
		}, nil
	}

	revealed, hit := revealUntilMine(picks, mines)
	out := &Outcome{Game: GameMines, Data: &MinesData{Mines: sorted(mines), Picks: picks, Revealed: revealed, MineCount: mc}}
	if !hit {
		out.Win = true
		out.Multiplier = minesTable[mc][revealed]
	}
	return out, nil
}

// forcedExactMines inverte a tabela: acha quantas gemas precisam ser
// reveladas pro multiplicador bater no alvo (tolerância de 5%), depois
// distribui as minas entre as casas restantes. O posicionamento sai de
// sorteios salteados do próprio commitment, então duas rodadas forçadas
// não repetem o mesmo desenho.
func forcedExactMines(c fair.Commitment, mc int, picks []int, want float64) (*Outcome, error) {
	maxGems := minesBoardSize - mc
	bestG := 1
	bestDiff := math.Inf(1)
	for g := 1; g <= maxGems; g++ {
		diff := math.Abs(minesTable[mc][g] - want)
		if diff < bestDiff {
			bestG = g
			bestDiff = diff
		}
	}
	mult := minesTable[mc][bestG]

	// casas seguras: os primeiros bestG picks, completados por sorteio
	// quando o jogador revelou menos que o necessário
	safe := map[int]bool{}
	for i := 0; i < len(picks) && i < bestG; i++ {
		safe[picks[i]] = true
	}
	for i := 0; len(safe) < bestG; i++ {
		u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "fsafe:"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		cell := int(u * minesBoardSize)
		if cell >= minesBoardSize {
			cell = minesBoardSize - 1
		}
		safe[cell] = true
	}

	var rest []int
	for cell := 0; cell < minesBoardSize; cell++ {
		if !safe[cell] {
			rest = append(rest, cell)
		}
	}
	idx, err := fair.DistinctIndices(c.ServerSecret, c.ClientSeed, c.Nonce, len(rest), mc, "fmine")
	if err != nil {
		return nil, err
	}
	mines := make([]int, 0, mc)
	for _, i := range idx {
		mines = append(mines, rest[i])
	}

	revealed := bestG
	return &Outcome{
		Game:       GameMines,
		Win:        true,
		Multiplier: mult,
		Forced:     true,
		TargetMiss: missOf(mult, want),
		Data:       &MinesData{Mines: sorted(mines), Picks: picks, Revealed: revealed, MineCount: mc},
	}, nil
}

// forcedMineSet posiciona mc minas; com hitPick, uma delas cai numa das
// casas escolhidas (derrota), senão todas ficam fora delas (vitória).
func forcedMineSet(c fair.Commitment, mc int, picks []int, hitPick bool) ([]int, error) {
	picked := map[int]bool{}
	for _, cell := range picks {
		picked[cell] = true
	}

	var free []int
	for cell := 0; cell < minesBoardSize; cell++ {
		if !picked[cell] {
			free = append(free, cell)
		}
	}

	mines := make([]int, 0, mc)
	need := mc
	if hitPick {
		u, err := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "fhit")
		if err != nil {
			return nil, err
		}
		hit := picks[int(u*float64(len(picks)))%len(picks)]
		mines = append(mines, hit)
		need--
	}

	idx, err := fair.DistinctIndices(c.ServerSecret, c.ClientSeed, c.Nonce, len(free), need, "fmine")
	if err != nil {
		return nil, err
	}
	for _, i := range idx {
		mines = append(mines, free[i])
	}
	return mines, nil
}

// revealUntilMine percorre os picks em ordem e para na primeira mina.
func revealUntilMine(picks, mines []int) (revealed int, hit bool) {
	mineSet := map[int]bool{}
	for _, m := range mines {
		mineSet[m] = true
	}
	for _, cell := range picks {
		if mineSet[cell] {
			return revealed, true
		}
		revealed++
	}
	return revealed, false
}

func sorted(v []int) []int {
	out := append([]int(nil), v...)
	sort.Ints(out)
	return out
}
