package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Postgres implementa operações de carteira em banco.
//
// Todo movimento acontece dentro de uma transação com lock pessimista
// na linha da carteira; o registro no ledger sai na mesma transação,
// então saldo e histórico nunca divergem (falhou o ledger, falhou o
// movimento inteiro).
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// GetOrCreateWallet retorna o walletId e saldo de um usuário, criando a
// carteira zerada se não existir.
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			id, userID); err != nil {
			return "", 0, err
		}
		bal = 0
	} else if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, bal, nil
}

// lockWallet trava a linha da carteira do usuário pro resto da
// transação, criando a carteira na primeira operação.
func lockWallet(ctx context.Context, tx *sql.Tx, userID string) (walletID string, balance int64, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).
		Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		walletID = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			walletID, userID); err != nil {
			return "", 0, err
		}
		return walletID, 0, nil
	}
	return walletID, balance, err
}

// appendLedger grava a linha de auditoria do movimento. O índice único
// (wallet_id, operation_type, reference) é o guarda de idempotência:
// retorna false quando este reference já movimentou nesta direção.
func appendLedger(ctx context.Context, tx *sql.Tx, walletID, opType string, amount int64, reference string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(id, wallet_id, operation_type, amount_cents, reference)
		VALUES($1,$2,$3,$4,$5)
		ON CONFLICT (wallet_id, operation_type, reference) DO NOTHING`,
		uuid.New().String(), walletID, opType, amount, reference)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Debit remove saldo da carteira, falhando com ErrInsufficientFunds se
// o saldo não cobre. Idempotente por reference (betID): repetir o mesmo
// débito devolve o saldo corrente sem movimentar de novo.
func (p *Postgres) Debit(ctx context.Context, userID string, amount int64, reference string) (newBalance int64, err error) {
	return p.move(ctx, userID, amount, reference, "DEBIT")
}

// Credit adiciona saldo na carteira. Mesma idempotência por reference.
func (p *Postgres) Credit(ctx context.Context, userID string, amount int64, reference string) (newBalance int64, err error) {
	return p.move(ctx, userID, amount, reference, "CREDIT")
}

// Deposit adiciona saldo vindo de fora da plataforma.
func (p *Postgres) Deposit(ctx context.Context, userID string, amount int64, reference string) (newBalance int64, err error) {
	return p.move(ctx, userID, amount, reference, "DEPOSIT")
}

// Withdraw retira saldo da plataforma; mesmas regras do débito.
func (p *Postgres) Withdraw(ctx context.Context, userID string, amount int64, reference string) (newBalance int64, err error) {
	return p.move(ctx, userID, amount, reference, "WITHDRAW")
}

func (p *Postgres) move(ctx context.Context, userID string, amount int64, reference, opType string) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	walletID, balance, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	// o guarda de idempotência vem antes da checagem de saldo: o retry
	// de um débito já aplicado tem que devolver o saldo corrente mesmo
	// que o saldo restante não cubra o valor de novo
	applied, err := appendLedger(ctx, tx, walletID, opType, amount, reference)
	if err != nil {
		return 0, err
	}
	if !applied {
		// retry do mesmo movimento: saldo corrente, sem nova mutação
		if err = tx.Commit(); err != nil {
			return 0, err
		}
		return balance, nil
	}

	debits := opType == "DEBIT" || opType == "WITHDRAW"
	if debits && balance < amount {
		// rollback da transação descarta a linha recém inserida no ledger
		return 0, ErrInsufficientFunds
	}

	delta := amount
	if debits {
		delta = -amount
	}
	if err = tx.QueryRowContext(ctx, `
		UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1
		WHERE id=$2
		RETURNING balance_cents`, delta, walletID).Scan(&balance); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// LedgerEntry é uma linha do histórico de movimentos.
type LedgerEntry struct {
	ID            string
	OperationType string
	AmountCents   int64
	Reference     string
	CreatedAt     string
}

// Ledger devolve os últimos movimentos da carteira, mais novos antes.
func (p *Postgres) Ledger(ctx context.Context, userID string, limit int) ([]LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT l.id, l.operation_type, l.amount_cents, l.reference, l.created_at
		FROM wallet_ledger l
		JOIN wallets w ON w.id = l.wallet_id
		WHERE w.user_id=$1
		ORDER BY l.created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.OperationType, &e.AmountCents, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
