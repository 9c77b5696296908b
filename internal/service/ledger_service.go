package service

import (
	"context"
	"fmt"
	"time"

	"mine_economy/internal/domain"
	"mine_economy/internal/logger"
	"mine_economy/internal/metrics"
	"mine_economy/internal/repository"

	"github.com/jonboulle/clockwork"
)

const defaultLeaderboardSize = 10

// delta is one balance change and the journal entry describing it.
type delta struct {
	UserID int64
	Field  domain.Field
	Amount int64
	Type   domain.TxType
	Meta   map[string]interface{}
}

// apply changes a balance inside tx and journals it. It is the only path by
// which services mutate balances.
func apply(ctx context.Context, tx repository.Tx, now time.Time, d delta) (int64, error) {
	v, err := tx.AddBalance(ctx, d.UserID, d.Field, d.Amount)
	if err != nil {
		metrics.LedgerDeltas.WithLabelValues(string(d.Field), "rejected").Inc()
		return 0, err
	}
	metrics.LedgerDeltas.WithLabelValues(string(d.Field), "applied").Inc()

	if err := tx.Record(ctx, &domain.Transaction{
		UserID:    d.UserID,
		Type:      d.Type,
		Field:     d.Field,
		Amount:    d.Amount,
		Meta:      d.Meta,
		CreatedAt: now,
	}); err != nil {
		return 0, err
	}
	return v, nil
}

// logFailure logs expected rejections at debug and everything else at error.
func logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if domain.IsRejection(err) {
		logger.Debug(msg, args...)
		return
	}
	logger.Error(msg, args...)
}

// LedgerService handles all balance operations
type LedgerService struct {
	store repository.Store
	clock clockwork.Clock
}

func NewLedgerService(store repository.Store, clock clockwork.Clock) *LedgerService {
	return &LedgerService{store: store, clock: clock}
}

// GetAccount returns the account, creating it on first access.
func (s *LedgerService) GetAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	return s.store.GetAccount(ctx, userID)
}

// ApplyDelta adds amount to a field. A debit larger than the balance fails
// with *domain.FundsError and changes nothing; xp only grows. A zero delta
// returns the current value without writing a journal row.
func (s *LedgerService) ApplyDelta(ctx context.Context, userID int64, field domain.Field, amount int64) (int64, error) {
	if !field.Valid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	if field == domain.FieldXP && amount < 0 {
		return 0, fmt.Errorf("%w: %d %s", domain.ErrInvalidAmount, amount, field)
	}
	if amount == 0 {
		acc, err := s.store.GetAccount(ctx, userID)
		if err != nil {
			return 0, err
		}
		return acc.Balance(field), nil
	}

	var newValue int64
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		v, err := apply(ctx, tx, s.clock.Now(), delta{UserID: userID, Field: field, Amount: amount, Type: domain.TxAdjust})
		newValue = v
		return err
	})
	if err != nil {
		logFailure("apply delta failed", err, "user_id", userID, "field", field, "amount", amount)
		return 0, err
	}
	return newValue, nil
}

// SetTimestamp overwrites a timestamp column. Last write wins.
func (s *LedgerService) SetTimestamp(ctx context.Context, userID int64, field domain.TimestampField, value *time.Time) error {
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.SetTimestamp(ctx, userID, field, value)
	})
}

// TransferResult holds both balances after a transfer.
type TransferResult struct {
	Currency    domain.Currency `json:"currency"`
	Amount      int64           `json:"amount"`
	FromBalance int64           `json:"from_balance"`
	ToBalance   int64           `json:"to_balance"`
}

// Transfer moves amount from one user to another. Both legs commit together
// or not at all.
func (s *LedgerService) Transfer(ctx context.Context, fromUserID, toUserID int64, currency domain.Currency, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amount)
	}
	if fromUserID == toUserID {
		return nil, domain.ErrSelfTransfer
	}
	if _, err := domain.ParseCurrency(string(currency)); err != nil {
		return nil, err
	}
	field := currency.Field()

	res := &TransferResult{Currency: currency, Amount: amount}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		// Lock both users (order by ID to prevent deadlocks)
		if _, err := tx.LockAccounts(ctx, fromUserID, toUserID); err != nil {
			return err
		}
		now := s.clock.Now()
		var err error
		res.FromBalance, err = apply(ctx, tx, now, delta{
			UserID: fromUserID, Field: field, Amount: -amount, Type: domain.TxTransferOut,
			Meta: map[string]interface{}{"to_user_id": toUserID},
		})
		if err != nil {
			return err
		}
		res.ToBalance, err = apply(ctx, tx, now, delta{
			UserID: toUserID, Field: field, Amount: amount, Type: domain.TxTransferIn,
			Meta: map[string]interface{}{"from_user_id": fromUserID},
		})
		return err
	})
	if err != nil {
		logFailure("transfer failed", err, "from", fromUserID, "to", toUserID, "currency", currency, "amount", amount)
		return nil, err
	}
	logger.Info("transfer", "from", fromUserID, "to", toUserID, "currency", currency, "amount", amount)
	return res, nil
}

// Grant credits a user from outside the economy (the admin give command).
func (s *LedgerService) Grant(ctx context.Context, userID int64, currency domain.Currency, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amount)
	}
	if _, err := domain.ParseCurrency(string(currency)); err != nil {
		return 0, err
	}

	var newValue int64
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		v, err := apply(ctx, tx, s.clock.Now(), delta{
			UserID: userID, Field: currency.Field(), Amount: amount, Type: domain.TxGrant,
			Meta: map[string]interface{}{"reason": reason},
		})
		newValue = v
		return err
	})
	if err != nil {
		logFailure("grant failed", err, "user_id", userID, "currency", currency)
		return 0, err
	}
	logger.Info("grant", "user_id", userID, "currency", currency, "amount", amount, "reason", reason)
	return newValue, nil
}

// SaleResult reports a crystals-for-gold exchange.
type SaleResult struct {
	CrystalsSold int64 `json:"crystals_sold"`
	GoldEarned   int64 `json:"gold_earned"`
	Crystals     int64 `json:"crystals"`
	Gold         int64 `json:"gold"`
}

// SellCrystals exchanges crystals for half as much gold, rounded down.
func (s *LedgerService) SellCrystals(ctx context.Context, userID, amount int64) (*SaleResult, error) {
	if amount < 2 {
		return nil, fmt.Errorf("%w: sell at least 2 crystals", domain.ErrInvalidAmount)
	}
	res := &SaleResult{CrystalsSold: amount, GoldEarned: amount / 2}
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		now := s.clock.Now()
		var err error
		res.Crystals, err = apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldCrystals, Amount: -amount, Type: domain.TxSell})
		if err != nil {
			return err
		}
		res.Gold, err = apply(ctx, tx, now, delta{UserID: userID, Field: domain.FieldGold, Amount: res.GoldEarned, Type: domain.TxSell})
		return err
	})
	if err != nil {
		logFailure("sell crystals failed", err, "user_id", userID, "amount", amount)
		return nil, err
	}
	return res, nil
}

// SettleWager pays a finished wager. Stakes are not escrowed, so the loser
// pays at most what they hold when the game ends.
func (s *LedgerService) SettleWager(ctx context.Context, winnerID, loserID, stake int64, meta map[string]interface{}) (int64, error) {
	if stake <= 0 {
		return 0, nil
	}
	var moved int64
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		accounts, err := tx.LockAccounts(ctx, winnerID, loserID)
		if err != nil {
			return err
		}
		moved = min(stake, accounts[loserID].Gold)
		if moved == 0 {
			return nil
		}
		now := s.clock.Now()
		lostMeta := map[string]interface{}{"opponent_id": winnerID}
		wonMeta := map[string]interface{}{"opponent_id": loserID}
		for k, v := range meta {
			lostMeta[k] = v
			wonMeta[k] = v
		}
		if _, err := apply(ctx, tx, now, delta{UserID: loserID, Field: domain.FieldGold, Amount: -moved, Type: domain.TxWagerLost, Meta: lostMeta}); err != nil {
			return err
		}
		_, err = apply(ctx, tx, now, delta{UserID: winnerID, Field: domain.FieldGold, Amount: moved, Type: domain.TxWagerWon, Meta: wonMeta})
		return err
	})
	if err != nil {
		return 0, err
	}
	if moved < stake {
		logger.Warn("wager settled below stake", "winner", winnerID, "loser", loserID, "stake", stake, "moved", moved)
	}
	return moved, nil
}

// RecordGame stores the per-player history rows of a finished session.
func (s *LedgerService) RecordGame(ctx context.Context, entries ...*domain.GameHistory) error {
	for _, gh := range entries {
		if gh.CreatedAt.IsZero() {
			gh.CreatedAt = s.clock.Now()
		}
		if err := s.store.SaveGameHistory(ctx, gh); err != nil {
			return err
		}
	}
	return nil
}

// History is a user's recent journal and game results.
type History struct {
	Transactions []*domain.Transaction `json:"transactions"`
	Games        []*domain.GameHistory `json:"games"`
}

func (s *LedgerService) History(ctx context.Context, userID int64, limit int) (*History, error) {
	txs, err := s.store.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	games, err := s.store.ListGameHistory(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return &History{Transactions: txs, Games: games}, nil
}

// Leaderboard returns the top accounts by field.
func (s *LedgerService) Leaderboard(ctx context.Context, field domain.Field, limit int) ([]*domain.Account, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	return s.store.TopBy(ctx, field, limit)
}
