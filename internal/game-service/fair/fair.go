package fair

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrEmptyServerSecret indica erro de configuração: o engine nunca opera
// com segredo vazio (e nunca assume um default silencioso).
var ErrEmptyServerSecret = errors.New("fair: server secret is empty")

// Commitment é o compromisso de seed publicado antes da aposta/rodada.
// ServerSecret só é revelado após a resolução; o hash permite auditar
// que o segredo não mudou no meio do caminho.
type Commitment struct {
	ServerSecret     string `json:"-"`
	ServerSecretHash string `json:"server_secret_hash"`
	ClientSeed       string `json:"client_seed"`
	Nonce            uint64 `json:"nonce"`
}

// NewCommitment gera um segredo novo (32 bytes, hex) e o hash publicável.
func NewCommitment(clientSeed string, nonce uint64) Commitment {
	secret := GenerateServerSecret()
	return Commitment{
		ServerSecret:     secret,
		ServerSecretHash: CommitmentHash(secret),
		ClientSeed:       clientSeed,
		Nonce:            nonce,
	}
}

// GenerateServerSecret retorna 32 bytes aleatórios em hex.
func GenerateServerSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// CommitmentHash calcula SHA-256(secret) em hex.
func CommitmentHash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyCommitment confere se o segredo revelado bate com o hash publicado.
// Nunca retorna erro: par inválido é simplesmente false.
func VerifyCommitment(secret, publishedHash string) bool {
	got := CommitmentHash(secret)
	return subtle.ConstantTimeCompare([]byte(got), []byte(publishedHash)) == 1
}

// Uniform deriva um float determinístico em [0,1) a partir do trio
// (serverSecret, clientSeed, nonce) e de um salt opcional.
//
// HMAC-SHA256(serverSecret, clientSeed|nonce[|salt]); os primeiros 8
// dígitos hex do digest viram um uint32, dividido por 0xFFFFFFFF.
// Mesmos inputs produzem sempre o mesmo float, sem estado mutável.
// O salt deriva sub-sorteios independentes dentro de uma mesma aposta
// (um por linha do plinko, um por casa do mines) sem reusar o digest.
func Uniform(serverSecret, clientSeed string, nonce uint64, salt string) (float64, error) {
	if serverSecret == "" {
		return 0, ErrEmptyServerSecret
	}

	msg := clientSeed + "|" + strconv.FormatUint(nonce, 10)
	if salt != "" {
		msg += "|" + salt
	}

	mac := hmac.New(sha256.New, []byte(serverSecret))
	mac.Write([]byte(msg))
	digest := hex.EncodeToString(mac.Sum(nil))

	n, err := strconv.ParseUint(digest[:8], 16, 64)
	if err != nil {
		// digest é sempre hex válido; aqui só por segurança do parse
		return 0, fmt.Errorf("fair: parse digest: %w", err)
	}
	return float64(n) / float64(0xFFFFFFFF), nil
}

// DiceRoll converte um uniform em um roll de dado em [0.00, 99.99],
// com duas casas decimais.
func DiceRoll(u float64) float64 {
	roll := math.Round(u*100*100) / 100
	if roll >= 100 {
		roll = 99.99
	}
	return roll
}

// CrashMultiplier converte um uniform no ponto de crash da rodada.
// edge é o fator provably-fair (0.99 => edge de 1% pra casa).
// Ex: u=0.5, edge=0.99 -> 1/(1-0.495) = 1.98.
func CrashMultiplier(u float64, edge float64) float64 {
	m := 1 / (1 - u*edge)
	if m < 1.0 {
		m = 1.0
	}
	return math.Round(m*100) / 100
}

// DistinctIndices sorteia count índices distintos em [0,total) por
// rejeição: cada tentativa usa um salt próprio (saltPrefix:i), então o
// resultado é reproduzível a partir do mesmo commitment.
func DistinctIndices(serverSecret, clientSeed string, nonce uint64, total, count int, saltPrefix string) ([]int, error) {
	if count > total {
		return nil, fmt.Errorf("fair: count %d > total %d", count, total)
	}

	chosen := make(map[int]struct{}, count)
	out := make([]int, 0, count)
	for i := 0; len(out) < count; i++ {
		u, err := Uniform(serverSecret, clientSeed, nonce, saltPrefix+":"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		idx := int(u * float64(total))
		if idx >= total {
			idx = total - 1
		}
		if _, ok := chosen[idx]; ok {
			continue
		}
		chosen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out, nil
}

// PathBit sorteia o desvio de uma linha (plinko/tower): 0 = esquerda,
// 1 = direita, limiar em 0.5.
func PathBit(serverSecret, clientSeed string, nonce uint64, row int) (int, error) {
	u, err := Uniform(serverSecret, clientSeed, nonce, "row:"+strconv.Itoa(row))
	if err != nil {
		return 0, err
	}
	if u >= 0.5 {
		return 1, nil
	}
	return 0, nil
}
