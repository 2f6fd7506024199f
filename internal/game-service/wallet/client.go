package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	walletdto "github.com/radieske/casino-games-platform-poc/internal/game-service/wallet/dto"
)

// ErrInsufficientFunds é devolvido quando o wallet recusa o débito por
// saldo insuficiente (HTTP 409 do wallet-service).
var ErrInsufficientFunds = errors.New("wallet: insufficient funds")

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Debit desconta o valor da aposta do saldo do usuário. Idempotente por
// reference (betID): um retry do mesmo débito não desconta de novo.
func (c *Client) Debit(ctx context.Context, userID string, cents int64, reference string) (int64, error) {
	return c.move(ctx, "/wallet/debit", userID, cents, reference)
}

// Credit paga um prêmio no saldo do usuário, idempotente por reference.
func (c *Client) Credit(ctx context.Context, userID string, cents int64, reference string) (int64, error) {
	return c.move(ctx, "/wallet/credit", userID, cents, reference)
}

func (c *Client) move(ctx context.Context, path, userID string, cents int64, reference string) (int64, error) {
	body, _ := json.Marshal(walletdto.MoveRequest{UserID: userID, AmountCents: cents, Reference: reference})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return 0, ErrInsufficientFunds
	}
	if res.StatusCode >= 300 {
		return 0, fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	var out walletdto.MoveResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.BalanceCents, nil
}
