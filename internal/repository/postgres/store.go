// Package postgres implements the ledger store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"mine_economy/internal/domain"
	"mine_economy/internal/repository"
	"mine_economy/internal/repository/postgres/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `user_id, xp, gold, crystals, daily_streak,
	last_mine_at, last_work_at, last_profit_at, last_daily_at, muted_until, created_at`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Migrations lists the embedded schema files in apply order.
func Migrations() ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Migrate applies the embedded schema files in order. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) ([]string, error) {
	names, err := Migrations()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		b, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(b)); err != nil {
			return nil, fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return names, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	if err := ensureAccount(ctx, s.db, userID); err != nil {
		return nil, err
	}
	return getAccount(ctx, s.db, userID, false)
}

func (s *Store) GetGear(ctx context.Context, userID int64) (*domain.GearSet, error) {
	if err := ensureGear(ctx, s.db, userID); err != nil {
		return nil, err
	}
	return getGear(ctx, s.db, userID, false)
}

// ListTransactions returns recent journal entries for a user
func (s *Store) ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, type, field, amount, meta, created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, repository.ListLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		var (
			t        domain.Transaction
			metaJSON []byte
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Field, &t.Amount, &metaJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &t.Meta)
		}
		result = append(result, &t)
	}
	return result, rows.Err()
}

func (s *Store) SaveGameHistory(ctx context.Context, gh *domain.GameHistory) error {
	detailsJSON, err := json.Marshal(gh.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO game_history
			(user_id, game_type, opponent_id, session_id, result, stake, amount, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		gh.UserID, gh.GameType, gh.OpponentID, gh.SessionID, gh.Result, gh.Stake, gh.Amount, detailsJSON,
	).Scan(&gh.ID, &gh.CreatedAt)
	if err != nil {
		return fmt.Errorf("save game history: %w", err)
	}
	return nil
}

func (s *Store) ListGameHistory(ctx context.Context, userID int64, limit int) ([]*domain.GameHistory, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, game_type, opponent_id, session_id, result, stake, amount, details, created_at
		 FROM game_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, repository.ListLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list game history: %w", err)
	}
	defer rows.Close()

	var result []*domain.GameHistory
	for rows.Next() {
		var (
			gh          domain.GameHistory
			detailsJSON []byte
		)
		if err := rows.Scan(&gh.ID, &gh.UserID, &gh.GameType, &gh.OpponentID, &gh.SessionID,
			&gh.Result, &gh.Stake, &gh.Amount, &detailsJSON, &gh.CreatedAt); err != nil {
			return nil, err
		}
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &gh.Details)
		}
		result = append(result, &gh)
	}
	return result, rows.Err()
}

// TopBy returns accounts ordered by a balance column, highest first.
func (s *Store) TopBy(ctx context.Context, field domain.Field, limit int) ([]*domain.Account, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM accounts ORDER BY %s DESC, user_id ASC LIMIT $1`, accountColumns, field),
		repository.ListLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("top accounts: %w", err)
	}
	defer rows.Close()

	var result []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) ResetQuests(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM quests`)
	if err != nil {
		return 0, fmt.Errorf("reset quests: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockAccounts(ctx context.Context, userIDs ...int64) (map[int64]*domain.Account, error) {
	result := make(map[int64]*domain.Account, len(userIDs))
	for _, id := range repository.SortedIDs(userIDs) {
		if err := ensureAccount(ctx, t.tx, id); err != nil {
			return nil, err
		}
		a, err := getAccount(ctx, t.tx, id, true)
		if err != nil {
			return nil, err
		}
		result[id] = a
	}
	return result, nil
}

func (t *pgTx) AddBalance(ctx context.Context, userID int64, field domain.Field, delta int64) (int64, error) {
	if !field.Valid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	if err := ensureAccount(ctx, t.tx, userID); err != nil {
		return 0, err
	}

	var newValue int64
	err := t.tx.QueryRow(ctx,
		fmt.Sprintf(`UPDATE accounts SET %[1]s = %[1]s + $1 WHERE user_id = $2 AND %[1]s + $1 >= 0 RETURNING %[1]s`, field),
		delta, userID,
	).Scan(&newValue)
	if err == nil {
		return newValue, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("update %s: %w", field, err)
	}

	var available int64
	if err := t.tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM accounts WHERE user_id = $1`, field), userID,
	).Scan(&available); err != nil {
		return 0, fmt.Errorf("read %s: %w", field, err)
	}
	return 0, &domain.FundsError{Field: field, Required: -delta, Available: available}
}

func (t *pgTx) SetTimestamp(ctx context.Context, userID int64, field domain.TimestampField, value *time.Time) error {
	if !field.Valid() {
		return fmt.Errorf("unknown timestamp field %q", field)
	}
	if err := ensureAccount(ctx, t.tx, userID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx,
		fmt.Sprintf(`UPDATE accounts SET %s = $1 WHERE user_id = $2`, field), value, userID,
	); err != nil {
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

func (t *pgTx) SetStreak(ctx context.Context, userID int64, streak int) error {
	if err := ensureAccount(ctx, t.tx, userID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, `UPDATE accounts SET daily_streak = $1 WHERE user_id = $2`, streak, userID); err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

func (t *pgTx) Gear(ctx context.Context, userID int64) (*domain.GearSet, error) {
	if err := ensureGear(ctx, t.tx, userID); err != nil {
		return nil, err
	}
	return getGear(ctx, t.tx, userID, true)
}

func (t *pgTx) SetGearLevel(ctx context.Context, userID int64, kind domain.GearKind, level int) error {
	if _, err := domain.ParseGearKind(string(kind)); err != nil {
		return err
	}
	if err := ensureGear(ctx, t.tx, userID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx,
		fmt.Sprintf(`UPDATE gear SET %s = $1 WHERE user_id = $2`, kind.Column()), level, userID,
	); err != nil {
		return fmt.Errorf("set %s: %w", kind.Column(), err)
	}
	return nil
}

// Record inserts a journal entry using the current transaction
func (t *pgTx) Record(ctx context.Context, tr *domain.Transaction) error {
	metaJSON, err := json.Marshal(tr.Meta)
	if err != nil || tr.Meta == nil {
		metaJSON = []byte("{}")
	}

	if err := t.tx.QueryRow(ctx,
		`INSERT INTO transactions (user_id, type, field, amount, meta)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		tr.UserID, tr.Type, tr.Field, tr.Amount, metaJSON,
	).Scan(&tr.ID, &tr.CreatedAt); err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

// Quest reads and locks the user's open quest.
func (t *pgTx) Quest(ctx context.Context, userID int64) (*domain.Quest, error) {
	var q domain.Quest
	err := t.tx.QueryRow(ctx,
		`SELECT user_id, kind, target, progress, created_at FROM quests WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&q.UserID, &q.Kind, &q.Target, &q.Progress, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return &q, nil
}

func (t *pgTx) SaveQuest(ctx context.Context, q *domain.Quest) error {
	if err := t.tx.QueryRow(ctx,
		`INSERT INTO quests (user_id, kind, target, progress)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET kind = EXCLUDED.kind, target = EXCLUDED.target, progress = EXCLUDED.progress
		 RETURNING created_at`,
		q.UserID, q.Kind, q.Target, q.Progress,
	).Scan(&q.CreatedAt); err != nil {
		return fmt.Errorf("save quest: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteQuest(ctx context.Context, userID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM quests WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	return nil
}

func ensureAccount(ctx context.Context, q querier, userID int64) error {
	if _, err := q.Exec(ctx,
		`INSERT INTO accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID,
	); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func ensureGear(ctx context.Context, q querier, userID int64) error {
	if _, err := q.Exec(ctx,
		`INSERT INTO gear (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID,
	); err != nil {
		return fmt.Errorf("create gear: %w", err)
	}
	return nil
}

func getAccount(ctx context.Context, q querier, userID int64, forUpdate bool) (*domain.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	a, err := scanAccount(q.QueryRow(ctx, sql, userID))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(
		&a.UserID,
		&a.XP,
		&a.Gold,
		&a.Crystals,
		&a.DailyStreak,
		&a.LastMineAt,
		&a.LastWorkAt,
		&a.LastProfitAt,
		&a.LastDailyAt,
		&a.MutedUntil,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func getGear(ctx context.Context, q querier, userID int64, forUpdate bool) (*domain.GearSet, error) {
	sql := `SELECT user_id, pickaxe_level, helmet_level, gloves_level, boots_level FROM gear WHERE user_id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var g domain.GearSet
	if err := q.QueryRow(ctx, sql, userID).Scan(&g.UserID, &g.Pickaxe, &g.Helmet, &g.Gloves, &g.Boots); err != nil {
		return nil, fmt.Errorf("get gear: %w", err)
	}
	return &g, nil
}
