// Package sqlite implements the ledger store on an embedded SQLite database.
// It is the default backend for single-node deployments and for tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mine_economy/internal/domain"
	"mine_economy/internal/repository"
	"mine_economy/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

const accountColumns = `user_id, xp, gold, crystals, daily_streak,
	last_mine_at, last_work_at, last_profit_at, last_daily_at, muted_until, created_at`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Store provides SQLite-backed ledger persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path and applies migrations. A single connection
// is kept so that transactions are serialized.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func applyMigrations(db *sql.DB) error {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	if err := ensureAccount(ctx, s.sqlDB, userID); err != nil {
		return nil, err
	}
	return getAccount(ctx, s.sqlDB, userID)
}

func (s *Store) GetGear(ctx context.Context, userID int64) (*domain.GearSet, error) {
	if err := ensureGear(ctx, s.sqlDB, userID); err != nil {
		return nil, err
	}
	return getGear(ctx, s.sqlDB, userID)
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, type, field, amount, meta, created_at
FROM transactions
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`, userID, repository.ListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		var (
			t         domain.Transaction
			meta      string
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Field, &t.Amount, &meta, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &t.Meta)
		}
		t.CreatedAt = fromMillis(createdAt)
		result = append(result, &t)
	}
	return result, rows.Err()
}

func (s *Store) SaveGameHistory(ctx context.Context, gh *domain.GameHistory) error {
	details, err := json.Marshal(gh.Details)
	if err != nil || gh.Details == nil {
		details = []byte("{}")
	}
	if gh.CreatedAt.IsZero() {
		gh.CreatedAt = time.Now().UTC()
	}
	res, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO game_history (user_id, game_type, opponent_id, session_id, result, stake, amount, details, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gh.UserID, gh.GameType, gh.OpponentID, gh.SessionID, gh.Result, gh.Stake, gh.Amount, string(details), toMillis(gh.CreatedAt))
	if err != nil {
		return fmt.Errorf("save game history: %w", err)
	}
	gh.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) ListGameHistory(ctx context.Context, userID int64, limit int) ([]*domain.GameHistory, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, game_type, opponent_id, session_id, result, stake, amount, details, created_at
FROM game_history
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`, userID, repository.ListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list game history: %w", err)
	}
	defer rows.Close()

	var result []*domain.GameHistory
	for rows.Next() {
		var (
			gh        domain.GameHistory
			details   string
			createdAt int64
		)
		if err := rows.Scan(&gh.ID, &gh.UserID, &gh.GameType, &gh.OpponentID, &gh.SessionID,
			&gh.Result, &gh.Stake, &gh.Amount, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scan game history: %w", err)
		}
		if details != "" {
			_ = json.Unmarshal([]byte(details), &gh.Details)
		}
		gh.CreatedAt = fromMillis(createdAt)
		result = append(result, &gh)
	}
	return result, rows.Err()
}

func (s *Store) TopBy(ctx context.Context, field domain.Field, limit int) ([]*domain.Account, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM accounts ORDER BY %s DESC, user_id ASC LIMIT ?`, accountColumns, field),
		repository.ListLimit(limit))
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
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM quests`)
	if err != nil {
		return 0, fmt.Errorf("reset quests: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

// LockAccounts relies on the single connection for exclusion; ids are still
// visited in ascending order so behavior matches the Postgres store.
func (t *sqliteTx) LockAccounts(ctx context.Context, userIDs ...int64) (map[int64]*domain.Account, error) {
	result := make(map[int64]*domain.Account, len(userIDs))
	for _, id := range repository.SortedIDs(userIDs) {
		if err := ensureAccount(ctx, t.tx, id); err != nil {
			return nil, err
		}
		a, err := getAccount(ctx, t.tx, id)
		if err != nil {
			return nil, err
		}
		result[id] = a
	}
	return result, nil
}

func (t *sqliteTx) AddBalance(ctx context.Context, userID int64, field domain.Field, delta int64) (int64, error) {
	if !field.Valid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	if err := ensureAccount(ctx, t.tx, userID); err != nil {
		return 0, err
	}

	var newValue int64
	err := t.tx.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE accounts SET %[1]s = %[1]s + ? WHERE user_id = ? AND %[1]s + ? >= 0 RETURNING %[1]s`, field),
		delta, userID, delta,
	).Scan(&newValue)
	if err == nil {
		return newValue, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("update %s: %w", field, err)
	}

	var available int64
	if err := t.tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM accounts WHERE user_id = ?`, field), userID,
	).Scan(&available); err != nil {
		return 0, fmt.Errorf("read %s: %w", field, err)
	}
	return 0, &domain.FundsError{Field: field, Required: -delta, Available: available}
}

func (t *sqliteTx) SetTimestamp(ctx context.Context, userID int64, field domain.TimestampField, value *time.Time) error {
	if !field.Valid() {
		return fmt.Errorf("unknown timestamp field %q", field)
	}
	if err := ensureAccount(ctx, t.tx, userID); err != nil {
		return err
	}
	var v sql.NullInt64
	if value != nil {
		v = sql.NullInt64{Int64: toMillis(*value), Valid: true}
	}
	if _, err := t.tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE accounts SET %s = ? WHERE user_id = ?`, field), v, userID,
	); err != nil {
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

func (t *sqliteTx) SetStreak(ctx context.Context, userID int64, streak int) error {
	if err := ensureAccount(ctx, t.tx, userID); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE accounts SET daily_streak = ? WHERE user_id = ?`, streak, userID); err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

func (t *sqliteTx) Gear(ctx context.Context, userID int64) (*domain.GearSet, error) {
	if err := ensureGear(ctx, t.tx, userID); err != nil {
		return nil, err
	}
	return getGear(ctx, t.tx, userID)
}

func (t *sqliteTx) SetGearLevel(ctx context.Context, userID int64, kind domain.GearKind, level int) error {
	if _, err := domain.ParseGearKind(string(kind)); err != nil {
		return err
	}
	if err := ensureGear(ctx, t.tx, userID); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE gear SET %s = ? WHERE user_id = ?`, kind.Column()), level, userID,
	); err != nil {
		return fmt.Errorf("set %s: %w", kind.Column(), err)
	}
	return nil
}

func (t *sqliteTx) Record(ctx context.Context, tr *domain.Transaction) error {
	meta, err := json.Marshal(tr.Meta)
	if err != nil || tr.Meta == nil {
		meta = []byte("{}")
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now().UTC()
	}
	res, err := t.tx.ExecContext(ctx, `
INSERT INTO transactions (user_id, type, field, amount, meta, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		tr.UserID, tr.Type, tr.Field, tr.Amount, string(meta), toMillis(tr.CreatedAt))
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	tr.ID, _ = res.LastInsertId()
	return nil
}

func (t *sqliteTx) Quest(ctx context.Context, userID int64) (*domain.Quest, error) {
	var (
		q         domain.Quest
		createdAt int64
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT user_id, kind, target, progress, created_at FROM quests WHERE user_id = ?`, userID,
	).Scan(&q.UserID, &q.Kind, &q.Target, &q.Progress, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	q.CreatedAt = fromMillis(createdAt)
	return &q, nil
}

func (t *sqliteTx) SaveQuest(ctx context.Context, q *domain.Quest) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if _, err := t.tx.ExecContext(ctx, `
INSERT INTO quests (user_id, kind, target, progress, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET kind = excluded.kind, target = excluded.target, progress = excluded.progress`,
		q.UserID, q.Kind, q.Target, q.Progress, toMillis(q.CreatedAt),
	); err != nil {
		return fmt.Errorf("save quest: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeleteQuest(ctx context.Context, userID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM quests WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	return nil
}

func ensureAccount(ctx context.Context, q querier, userID int64) error {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO accounts (user_id, created_at) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`,
		userID, toMillis(time.Now().UTC()),
	); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func ensureGear(ctx context.Context, q querier, userID int64) error {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO gear (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING`, userID,
	); err != nil {
		return fmt.Errorf("create gear: %w", err)
	}
	return nil
}

func getAccount(ctx context.Context, q querier, userID int64) (*domain.Account, error) {
	a, err := scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ?`, userID))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a                                domain.Account
		mine, work, profit, daily, muted sql.NullInt64
		createdAt                        int64
	)
	if err := row.Scan(&a.UserID, &a.XP, &a.Gold, &a.Crystals, &a.DailyStreak,
		&mine, &work, &profit, &daily, &muted, &createdAt); err != nil {
		return nil, err
	}
	a.LastMineAt = nullableTime(mine)
	a.LastWorkAt = nullableTime(work)
	a.LastProfitAt = nullableTime(profit)
	a.LastDailyAt = nullableTime(daily)
	a.MutedUntil = nullableTime(muted)
	a.CreatedAt = fromMillis(createdAt)
	return &a, nil
}

func getGear(ctx context.Context, q querier, userID int64) (*domain.GearSet, error) {
	var g domain.GearSet
	if err := q.QueryRowContext(ctx,
		`SELECT user_id, pickaxe_level, helmet_level, gloves_level, boots_level FROM gear WHERE user_id = ?`, userID,
	).Scan(&g.UserID, &g.Pickaxe, &g.Helmet, &g.Gloves, &g.Boots); err != nil {
		return nil, fmt.Errorf("get gear: %w", err)
	}
	return &g, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullableTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
