package games

import (
	"math"
	"testing"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
)

func commitment(nonce uint64) fair.Commitment {
	secret := "segredo-de-teste"
	return fair.Commitment{
		ServerSecret:     secret,
		ServerSecretHash: fair.CommitmentHash(secret),
		ClientSeed:       "cliente-1",
		Nonce:            nonce,
	}
}

func TestDiceNaturalConsistente(t *testing.T) {
	c := commitment(1)
	out, err := Resolve(GameDice, c, Params{Target: 50, Mode: "over"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	data := out.Data.(*DiceData)

	// o roll tem que ser exatamente o derivado do commitment
	u, _ := fair.Uniform(c.ServerSecret, c.ClientSeed, c.Nonce, "")
	if data.Roll != fair.DiceRoll(u) {
		t.Fatalf("roll %v não bate com o sorteio do commitment", data.Roll)
	}
	if out.Win != (data.Roll > 50) {
		t.Fatalf("win incoerente com o roll")
	}
	if out.Win && out.Multiplier != 2.00 {
		t.Fatalf("multiplicador de target 50 over tem que ser 2.00, veio %v", out.Multiplier)
	}

	// determinismo: resolver de novo dá o mesmo resultado
	again, _ := Resolve(GameDice, c, Params{Target: 50, Mode: "over"}, nil)
	if again.Data.(*DiceData).Roll != data.Roll {
		t.Fatalf("resolve não determinístico")
	}
}

func TestDiceForcado(t *testing.T) {
	c := commitment(2)

	win, err := Resolve(GameDice, c, Params{Target: 90, Mode: "over"}, &control.Directive{Type: control.OutcomeWin})
	if err != nil {
		t.Fatal(err)
	}
	if !win.Win || !win.Forced {
		t.Fatalf("win forçado não venceu: %+v", win)
	}
	if d := win.Data.(*DiceData); !(d.Roll > 90) {
		t.Fatalf("roll forçado %v não passa do alvo 90", d.Roll)
	}

	lose, _ := Resolve(GameDice, c, Params{Target: 10, Mode: "over"}, &control.Directive{Type: control.OutcomeLose})
	if lose.Win {
		t.Fatalf("lose forçado venceu")
	}
	if d := lose.Data.(*DiceData); d.Roll > 10 {
		t.Fatalf("roll forçado %v ainda vence de 10 over", d.Roll)
	}
}

func TestDiceMultiplicadorExato(t *testing.T) {
	c := commitment(3)
	out, err := Resolve(GameDice, c, Params{Target: 50, Mode: "over"},
		&control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 4.0})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Win {
		t.Fatalf("exato tinha que vencer")
	}
	// dice é contínuo: 4x => target 75, sempre alcançável
	if math.Abs(out.Multiplier-4.0) > 4.0*0.05 {
		t.Fatalf("multiplicador %v fora da tolerância do alvo 4.0", out.Multiplier)
	}
	if out.TargetMiss != 0 {
		t.Fatalf("alvo alcançável reportou miss %v", out.TargetMiss)
	}
}

func TestLimboForcado(t *testing.T) {
	c := commitment(4)
	win, err := Resolve(GameLimbo, c, Params{TargetMultiplier: 50}, &control.Directive{Type: control.OutcomeWin})
	if err != nil {
		t.Fatal(err)
	}
	if !win.Win || win.Multiplier != 50 {
		t.Fatalf("limbo forçado: %+v", win)
	}
	if d := win.Data.(*LimboData); d.Result < 50 {
		t.Fatalf("resultado %v abaixo do alvo vencedor", d.Result)
	}

	lose, _ := Resolve(GameLimbo, c, Params{TargetMultiplier: 1.5}, &control.Directive{Type: control.OutcomeLose})
	if lose.Win {
		t.Fatalf("limbo lose forçado venceu")
	}
	if d := lose.Data.(*LimboData); d.Result >= 1.5 {
		t.Fatalf("resultado %v ainda alcança 1.5", d.Result)
	}
}

func TestPlinkoNatural(t *testing.T) {
	c := commitment(5)
	out, err := Resolve(GamePlinko, c, Params{Risk: "medium", Rows: 12}, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := out.Data.(*PlinkoData)
	if len(d.Path) != 12 {
		t.Fatalf("caminho com %d linhas, esperava 12", len(d.Path))
	}
	sum := 0
	for _, b := range d.Path {
		sum += b
	}
	if sum != d.Bucket {
		t.Fatalf("bucket %d não é a soma do caminho %d", d.Bucket, sum)
	}
	if out.Multiplier != plinkoTables["medium"][12][d.Bucket] {
		t.Fatalf("multiplicador não bate com a tabela")
	}
}

func TestPlinkoMultiplicadorExato(t *testing.T) {
	c := commitment(6)
	out, err := Resolve(GamePlinko, c, Params{Risk: "low", Rows: 8},
		&control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 2.0})
	if err != nil {
		t.Fatal(err)
	}
	d := out.Data.(*PlinkoData)
	// alvo 2.0 no low/8: entrada mais próxima é 2.1 (dentro de 5%)
	if out.Multiplier != 2.1 {
		t.Fatalf("esperava bucket de 2.1, veio %v", out.Multiplier)
	}
	if out.TargetMiss != 0 {
		t.Fatalf("2.1 está a 5%% de 2.0, não era pra reportar miss")
	}
	sum := 0
	for _, b := range d.Path {
		sum += b
	}
	if sum != d.Bucket || plinkoTables["low"][8][d.Bucket] != 2.1 {
		t.Fatalf("caminho sintetizado não cai no bucket do alvo")
	}
}

func TestMinesNatural(t *testing.T) {
	c := commitment(7)
	out, err := Resolve(GameMines, c, Params{MineCount: 3, Picks: []int{0, 5, 10}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := out.Data.(*MinesData)
	if len(d.Mines) != 3 {
		t.Fatalf("esperava 3 minas, veio %d", len(d.Mines))
	}
	if out.Win && out.Multiplier != minesTable[3][3] {
		t.Fatalf("multiplicador de 3 gemas não bate com a tabela")
	}
}

func TestMinesMultiplicadorExato(t *testing.T) {
	c := commitment(8)
	picks := []int{1, 2, 3, 4, 6, 7}
	out, err := Resolve(GameMines, c, Params{MineCount: 5, Picks: picks},
		&control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 2.0})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Win {
		t.Fatalf("exato tinha que vencer")
	}
	d := out.Data.(*MinesData)
	if len(d.Mines) != 5 {
		t.Fatalf("tem que posicionar exatamente 5 minas, veio %d", len(d.Mines))
	}
	// tabela[5][g] a até 5% de 2.0
	if math.Abs(out.Multiplier-2.0) > 2.0*exactTolerance {
		t.Fatalf("multiplicador %v fora da tolerância de 2.0", out.Multiplier)
	}
	if minesTable[5][d.Revealed] != out.Multiplier {
		t.Fatalf("gemas reveladas %d não implicam o multiplicador %v", d.Revealed, out.Multiplier)
	}
	// sobram pelo menos g casas seguras
	if 25-len(d.Mines) < d.Revealed {
		t.Fatalf("tabuleiro sem casas seguras suficientes")
	}
	// as casas reveladas não podem conter mina
	mineSet := map[int]bool{}
	for _, m := range d.Mines {
		mineSet[m] = true
	}
	for i := 0; i < d.Revealed && i < len(picks); i++ {
		if mineSet[picks[i]] {
			t.Fatalf("mina em casa revelada %d", picks[i])
		}
	}
}

func TestMinesForcadoVariaEntreApostas(t *testing.T) {
	d1, _ := Resolve(GameMines, commitment(100), Params{MineCount: 5, Picks: []int{0, 1}},
		&control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 2.0})
	d2, _ := Resolve(GameMines, commitment(101), Params{MineCount: 5, Picks: []int{0, 1}},
		&control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 2.0})
	a := d1.Data.(*MinesData).Mines
	b := d2.Data.(*MinesData).Mines
	same := len(a) == len(b)
	if same {
		for i := range a {
			if a[i] != b[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatalf("duas rodadas forçadas saíram mecanicamente idênticas: %v", a)
	}
}

func TestTowerExato(t *testing.T) {
	c := commitment(9)
	out, err := Resolve(GameTower, c, Params{Difficulty: "medium", Levels: 3},
		&control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 5.0})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Win {
		t.Fatalf("tower exato tinha que vencer")
	}
	d := out.Data.(*TowerData)
	if TowerMultiplier("medium", d.Cleared) != out.Multiplier {
		t.Fatalf("andares vencidos %d não implicam o multiplicador %v", d.Cleared, out.Multiplier)
	}
}

func TestSlotsForcado(t *testing.T) {
	c := commitment(10)
	win, err := Resolve(GameSlots, c, Params{}, &control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 25})
	if err != nil {
		t.Fatal(err)
	}
	if !win.Win || win.Multiplier != 25 {
		t.Fatalf("trinca de bell paga 25: %+v", win)
	}

	lose, _ := Resolve(GameSlots, c, Params{}, &control.Directive{Type: control.OutcomeLose})
	if lose.Win || slotsPayout(lose.Data.(*SlotsData).Reels) != 0 {
		t.Fatalf("derrota forçada pagou: %+v", lose)
	}
}

func TestCupsForcado(t *testing.T) {
	c := commitment(11)
	win, err := Resolve(GameCups, c, Params{PickedCup: 2}, &control.Directive{Type: control.OutcomeWin})
	if err != nil {
		t.Fatal(err)
	}
	if !win.Win || win.Data.(*CupsData).Ball != 2 {
		t.Fatalf("win forçado não colocou a bolinha no copo escolhido")
	}

	lose, _ := Resolve(GameCups, c, Params{PickedCup: 1}, &control.Directive{Type: control.OutcomeLose})
	if lose.Win || lose.Data.(*CupsData).Ball == 1 {
		t.Fatalf("lose forçado deixou a bolinha no copo escolhido")
	}
}

func TestAlvoInalcancavelReportaMiss(t *testing.T) {
	c := commitment(12)
	// copinho só paga 2.85; alvo 10 fica fora da tolerância
	out, err := Resolve(GameCups, c, Params{PickedCup: 0},
		&control.Directive{Type: control.OutcomeWin, UseExact: true, Target: 10})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Win || out.Multiplier != cupsMultiplier {
		t.Fatalf("fallback tinha que vencer com o valor alcançável: %+v", out)
	}
	if out.TargetMiss == 0 {
		t.Fatalf("alvo inalcançável tinha que reportar o desvio")
	}
}

func TestCrashOutcome(t *testing.T) {
	win := CrashOutcome(2.40, 1.73, false)
	if !win.Win || win.Multiplier != 1.73 {
		t.Fatalf("cashout 1.73 antes do crash 2.40 tem que vencer: %+v", win)
	}
	lose := CrashOutcome(1.98, 0, false)
	if lose.Win || lose.Multiplier != 0 {
		t.Fatalf("sem cashout é derrota: %+v", lose)
	}
}

func TestJogoDesconhecido(t *testing.T) {
	if _, err := Resolve("baccarat", commitment(1), Params{}, nil); err == nil {
		t.Fatalf("jogo desconhecido tem que falhar")
	}
}
