package economy

import (
	"time"

	"github.com/google/uuid"

	"adquest/internal/types"
)

// RequestWithdrawal creates a PENDING withdrawal. The amount is escrowed:
// it leaves the balance at request time, so two concurrent requests cannot
// spend the same funds. Reject refunds it; approve only finalizes.
// Validation failures create no transaction.
func (e *Engine) RequestWithdrawal(state *types.AppState, userID string, amount int64, method types.PaymentMethod, now time.Time) (*types.Transaction, error) {
	u := state.UserByID(userID)
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !types.ValidMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}
	if amount < e.cfg.MinWithdrawal {
		return nil, ErrBelowMinimumWithdrawal
	}
	if amount > u.Balance {
		return nil, ErrInsufficientBalance
	}

	u.Balance -= amount
	tx := &types.Transaction{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Type:      types.TxWithdrawal,
		Amount:    amount,
		Method:    method,
		Status:    types.TxPending,
		CreatedAt: now.UTC(),
	}
	state.Transactions = append(state.Transactions, tx)
	return tx, nil
}

// RequestDeposit creates a PENDING deposit carrying the user's external
// payment reference. No balance moves until an admin approves.
func (e *Engine) RequestDeposit(state *types.AppState, userID string, amount int64, method types.PaymentMethod, externalRef string, now time.Time) (*types.Transaction, error) {
	u := state.UserByID(userID)
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !types.ValidMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx := &types.Transaction{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		Type:        types.TxDeposit,
		Amount:      amount,
		Method:      method,
		ExternalRef: externalRef,
		Status:      types.TxPending,
		CreatedAt:   now.UTC(),
	}
	state.Transactions = append(state.Transactions, tx)
	return tx, nil
}

// Approve resolves a PENDING transaction. Deposits credit the user now;
// withdrawals were escrowed at request time, so approval only finalizes and
// counts toward total payouts. APPROVED and REJECTED are terminal.
func (e *Engine) Approve(state *types.AppState, txID string) (*types.Transaction, error) {
	tx := state.TransactionByID(txID)
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	if tx.Status != types.TxPending {
		return nil, ErrInvalidTransactionTransition
	}

	switch tx.Type {
	case types.TxDeposit:
		u := state.UserByID(tx.UserID)
		if u == nil {
			return nil, ErrUserNotFound
		}
		u.Balance += tx.Amount
	case types.TxWithdrawal:
		state.Stats.TotalPayouts += tx.Amount
	}

	tx.Status = types.TxApproved
	return tx, nil
}

// Reject resolves a PENDING transaction. Escrowed withdrawal funds return
// to the user; deposits had no balance effect to reverse.
func (e *Engine) Reject(state *types.AppState, txID string) (*types.Transaction, error) {
	tx := state.TransactionByID(txID)
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	if tx.Status != types.TxPending {
		return nil, ErrInvalidTransactionTransition
	}

	if tx.Type == types.TxWithdrawal {
		if u := state.UserByID(tx.UserID); u != nil {
			u.Balance += tx.Amount
		}
	}

	tx.Status = types.TxRejected
	return tx, nil
}
