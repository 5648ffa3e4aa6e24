package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jellybank/internal/core"

	_ "modernc.org/sqlite"
)

// Sentinel errors surfaced by the repository. Services translate these
// into classified domain errors with request context attached.
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateGrant      = errors.New("grant already recorded for this date")
	ErrDuplicateClaim      = errors.New("claim already recorded for this period")
	ErrDuplicateMonth      = errors.New("challenge month already selected")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Repository is the SQLite-backed ledger store. Composite mutations
// (grant, claim, exchange, settlement) each run inside one transaction,
// so balances and history can never diverge through this store.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
// on the given table.
func isUniqueViolation(err error, table string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, table)
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ─── Profiles ───────────────────────────────────────────────────────────

func (r *Repository) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT id, role, display_name, created_at FROM profiles WHERE id = ?`, id))
}

// GetProfileByToken resolves a bearer credential to a profile.
func (r *Repository) GetProfileByToken(ctx context.Context, token string) (core.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT id, role, display_name, created_at FROM profiles WHERE api_token = ?`, token))
}

func scanProfile(row *sql.Row) (core.Profile, error) {
	var p core.Profile
	var createdAt string
	err := row.Scan(&p.ID, &p.Role, &p.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// CreateProfile provisions a member with an empty wallet. Used by seed
// tooling and tests; account creation itself is external to the ledger.
func (r *Repository) CreateProfile(ctx context.Context, p core.Profile, token string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(p.CreatedAt)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (id, role, display_name, api_token, created_at) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Role, p.DisplayName, token, now); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO wallets (user_id, updated_at) VALUES (?, ?)`, p.ID, now); err != nil {
			return fmt.Errorf("insert wallet: %w", err)
		}
		return nil
	})
}

// ─── Wallets ────────────────────────────────────────────────────────────

func (r *Repository) GetWallet(ctx context.Context, userID string) (core.Wallet, error) {
	return scanWallet(r.db.QueryRowContext(ctx,
		`SELECT user_id, jelly_normal, jelly_special, jelly_bonus, cash_balance, updated_at
		 FROM wallets WHERE user_id = ?`, userID))
}

func getWalletTx(ctx context.Context, tx *sql.Tx, userID string) (core.Wallet, error) {
	return scanWallet(tx.QueryRowContext(ctx,
		`SELECT user_id, jelly_normal, jelly_special, jelly_bonus, cash_balance, updated_at
		 FROM wallets WHERE user_id = ?`, userID))
}

func scanWallet(row *sql.Row) (core.Wallet, error) {
	var w core.Wallet
	var updatedAt string
	err := row.Scan(&w.UserID, &w.JellyNormal, &w.JellySpecial, &w.JellyBonus, &w.CashBalance, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, ErrNotFound
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("scan wallet: %w", err)
	}
	w.UpdatedAt = parseTime(updatedAt)
	return w, nil
}

func balanceColumn(kind core.TokenKind) string {
	switch kind {
	case core.TokenNormal:
		return "jelly_normal"
	case core.TokenSpecial:
		return "jelly_special"
	case core.TokenBonus:
		return "jelly_bonus"
	}
	return ""
}

// creditBalance adds to one balance column inside a transaction.
func creditBalance(ctx context.Context, tx *sql.Tx, userID, column string, amount int64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE wallets SET %s = %s + ?, updated_at = ? WHERE user_id = ?`, column, column),
		amount, formatTime(now), userID)
	if err != nil {
		return fmt.Errorf("credit %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit %s rows affected: %w", column, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Grants ─────────────────────────────────────────────────────────────

// ApplyGrant atomically credits the child's NORMAL balance, records the
// grant, and flips the matching challenge day to REWARDED when the
// month grid exists. The (child, target date) uniqueness constraint is
// the race-free guard against double-granting a day.
func (r *Repository) ApplyGrant(ctx context.Context, g core.Grant) (core.Grant, core.Wallet, error) {
	var wallet core.Wallet
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO jelly_grants (id, child_id, parent_id, challenge, jelly, amount, target_date, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.ChildID, g.ParentID, g.Challenge, g.Jelly, g.Amount, g.TargetDate.String(), formatTime(g.CreatedAt))
		if isUniqueViolation(err, "jelly_grants") {
			return ErrDuplicateGrant
		}
		if err != nil {
			return fmt.Errorf("insert grant: %w", err)
		}

		if err := creditBalance(ctx, tx, g.ChildID, balanceColumn(g.Jelly), g.Amount, g.CreatedAt); err != nil {
			return err
		}

		// Best-effort grid bookkeeping: only applies when the child has
		// already selected challenges for the grant's month.
		if _, err := tx.ExecContext(ctx,
			`UPDATE challenge_days SET status = ?
			 WHERE day_date = ?
			   AND challenge_month_id IN (
			       SELECT id FROM challenge_months WHERE child_id = ? AND year_month = ?)`,
			core.DayRewarded, g.TargetDate.String(), g.ChildID, g.TargetDate.YearMonth()); err != nil {
			return fmt.Errorf("mark challenge day rewarded: %w", err)
		}

		wallet, err = getWalletTx(ctx, tx, g.ChildID)
		return err
	})
	if err != nil {
		return core.Grant{}, core.Wallet{}, err
	}
	return g, wallet, nil
}

// ListGrantDates returns the distinct target dates in [from, to] that
// carry a grant of the given kind for the child, ascending.
func (r *Repository) ListGrantDates(ctx context.Context, childID string, jelly core.TokenKind, from, to core.Date) ([]core.Date, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT target_date FROM jelly_grants
		 WHERE child_id = ? AND jelly = ? AND target_date >= ? AND target_date <= ?
		 ORDER BY target_date`,
		childID, jelly, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list grant dates: %w", err)
	}
	defer rows.Close()

	var dates []core.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan grant date: %w", err)
		}
		d, err := core.ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *Repository) GetGrant(ctx context.Context, id string) (core.Grant, error) {
	var g core.Grant
	var targetDate, createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, child_id, parent_id, challenge, jelly, amount, target_date, created_at
		 FROM jelly_grants WHERE id = ?`, id).
		Scan(&g.ID, &g.ChildID, &g.ParentID, &g.Challenge, &g.Jelly, &g.Amount, &targetDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Grant{}, ErrNotFound
	}
	if err != nil {
		return core.Grant{}, fmt.Errorf("scan grant: %w", err)
	}
	g.TargetDate, err = core.ParseDate(targetDate)
	if err != nil {
		return core.Grant{}, err
	}
	g.CreatedAt = parseTime(createdAt)
	return g, nil
}

// ─── Claims ─────────────────────────────────────────────────────────────

func (r *Repository) GetClaim(ctx context.Context, childID string, kind core.RewardKind, periodKey string) (core.Claim, error) {
	var c core.Claim
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, child_id, reward_kind, period_key, created_at
		 FROM reward_claims WHERE child_id = ? AND reward_kind = ? AND period_key = ?`,
		childID, kind, periodKey).
		Scan(&c.ID, &c.ChildID, &c.RewardKind, &c.PeriodKey, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Claim{}, ErrNotFound
	}
	if err != nil {
		return core.Claim{}, fmt.Errorf("scan claim: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func (r *Repository) GetClaimByID(ctx context.Context, id string) (core.Claim, error) {
	var c core.Claim
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, child_id, reward_kind, period_key, created_at
		 FROM reward_claims WHERE id = ?`, id).
		Scan(&c.ID, &c.ChildID, &c.RewardKind, &c.PeriodKey, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Claim{}, ErrNotFound
	}
	if err != nil {
		return core.Claim{}, fmt.Errorf("scan claim: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

// ApplyClaim atomically records the claim and credits the matching
// reward balance. The claim insert hits the (child, kind, period key)
// uniqueness constraint first, so a lost race cannot touch the wallet.
func (r *Repository) ApplyClaim(ctx context.Context, c core.Claim) (core.Claim, core.Wallet, error) {
	var wallet core.Wallet
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reward_claims (id, child_id, reward_kind, period_key, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.ChildID, c.RewardKind, c.PeriodKey, formatTime(c.CreatedAt))
		if isUniqueViolation(err, "reward_claims") {
			return ErrDuplicateClaim
		}
		if err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}

		if err := creditBalance(ctx, tx, c.ChildID, balanceColumn(c.RewardKind.Token()), 1, c.CreatedAt); err != nil {
			return err
		}

		wallet, err = getWalletTx(ctx, tx, c.ChildID)
		return err
	})
	if err != nil {
		return core.Claim{}, core.Wallet{}, err
	}
	return c, wallet, nil
}

// ─── Exchanges ──────────────────────────────────────────────────────────

// ApplyExchange atomically debits the jelly balance, credits cash, and
// records the exchange. The debit is guarded (`WHERE balance >= ?`), so
// a concurrent spend of the same jellies cannot drive it negative.
func (r *Repository) ApplyExchange(ctx context.Context, e core.Exchange) (core.Exchange, core.Wallet, error) {
	column := balanceColumn(e.Jelly)
	var wallet core.Wallet
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE wallets
			 SET %s = %s - ?, cash_balance = cash_balance + ?, updated_at = ?
			 WHERE user_id = ? AND %s >= ?`, column, column, column),
			e.Amount, e.ExchangedCash, formatTime(e.CreatedAt), e.UserID, e.Amount)
		if err != nil {
			return fmt.Errorf("debit %s: %w", column, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("debit rows affected: %w", err)
		}
		if n == 0 {
			return ErrInsufficientBalance
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO jelly_exchanges (id, user_id, jelly, amount, exchanged_cash, rate, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.Jelly, e.Amount, e.ExchangedCash, e.Rate, formatTime(e.CreatedAt)); err != nil {
			return fmt.Errorf("insert exchange: %w", err)
		}

		wallet, err = getWalletTx(ctx, tx, e.UserID)
		return err
	})
	if err != nil {
		return core.Exchange{}, core.Wallet{}, err
	}
	return e, wallet, nil
}

func (r *Repository) GetExchange(ctx context.Context, id string) (core.Exchange, error) {
	var e core.Exchange
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, jelly, amount, exchanged_cash, rate, created_at
		 FROM jelly_exchanges WHERE id = ?`, id).
		Scan(&e.ID, &e.UserID, &e.Jelly, &e.Amount, &e.ExchangedCash, &e.Rate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Exchange{}, ErrNotFound
	}
	if err != nil {
		return core.Exchange{}, fmt.Errorf("scan exchange: %w", err)
	}
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// ─── Challenge months ───────────────────────────────────────────────────

func (r *Repository) GetChallengeMonth(ctx context.Context, childID, yearMonth string) (core.ChallengeMonth, error) {
	var m core.ChallengeMonth
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, child_id, year_month, challenge_a, challenge_b, pair_key, created_at
		 FROM challenge_months WHERE child_id = ? AND year_month = ?`,
		childID, yearMonth).
		Scan(&m.ID, &m.ChildID, &m.YearMonth, &m.ChallengeA, &m.ChallengeB, &m.PairKey, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ChallengeMonth{}, ErrNotFound
	}
	if err != nil {
		return core.ChallengeMonth{}, fmt.Errorf("scan challenge month: %w", err)
	}
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

// CreateChallengeMonth inserts the month row and materializes its day
// grid in one transaction. Day insertion is an upsert keyed by
// (month, day) so retries after a partial failure are safe.
func (r *Repository) CreateChallengeMonth(ctx context.Context, m core.ChallengeMonth, days []core.ChallengeDay) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO challenge_months (id, child_id, year_month, challenge_a, challenge_b, pair_key, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.ChildID, m.YearMonth, m.ChallengeA, m.ChallengeB, m.PairKey, formatTime(m.CreatedAt))
		if isUniqueViolation(err, "challenge_months") {
			return ErrDuplicateMonth
		}
		if err != nil {
			return fmt.Errorf("insert challenge month: %w", err)
		}

		for _, d := range days {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO challenge_days (challenge_month_id, day_date, status, memo)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT (challenge_month_id, day_date) DO NOTHING`,
				m.ID, d.DayDate.String(), d.Status, d.Memo); err != nil {
				return fmt.Errorf("insert challenge day %s: %w", d.DayDate, err)
			}
		}
		return nil
	})
}

// ListChallengeDays returns the month's day grid ordered by date.
func (r *Repository) ListChallengeDays(ctx context.Context, monthID string) ([]core.ChallengeDay, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT challenge_month_id, day_date, status, memo
		 FROM challenge_days WHERE challenge_month_id = ? ORDER BY day_date`, monthID)
	if err != nil {
		return nil, fmt.Errorf("list challenge days: %w", err)
	}
	defer rows.Close()

	var days []core.ChallengeDay
	for rows.Next() {
		var d core.ChallengeDay
		var dayDate string
		if err := rows.Scan(&d.MonthID, &dayDate, &d.Status, &d.Memo); err != nil {
			return nil, fmt.Errorf("scan challenge day: %w", err)
		}
		d.DayDate, err = core.ParseDate(dayDate)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ─── Allowance requests and proofs ──────────────────────────────────────

func (r *Repository) CreateAllowanceRequest(ctx context.Context, req core.AllowanceRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO allowance_requests (id, child_id, requested_cash, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.ChildID, req.RequestedCash, req.Status, formatTime(req.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert allowance request: %w", err)
	}
	return nil
}

func (r *Repository) GetAllowanceRequest(ctx context.Context, id string) (core.AllowanceRequest, error) {
	var req core.AllowanceRequest
	var settledAt sql.NullString
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, child_id, requested_cash, status, settled_at, created_at
		 FROM allowance_requests WHERE id = ?`, id).
		Scan(&req.ID, &req.ChildID, &req.RequestedCash, &req.Status, &settledAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AllowanceRequest{}, ErrNotFound
	}
	if err != nil {
		return core.AllowanceRequest{}, fmt.Errorf("scan allowance request: %w", err)
	}
	if settledAt.Valid {
		t := parseTime(settledAt.String)
		req.SettledAt = &t
	}
	req.CreatedAt = parseTime(createdAt)
	return req, nil
}

func (r *Repository) GetProof(ctx context.Context, requestID string) (core.Proof, error) {
	var p core.Proof
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, request_id, uploader_parent_id, object_path, created_at
		 FROM allowance_proofs WHERE request_id = ?`, requestID).
		Scan(&p.ID, &p.RequestID, &p.UploaderID, &p.ObjectPath, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Proof{}, ErrNotFound
	}
	if err != nil {
		return core.Proof{}, fmt.Errorf("scan proof: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// SettleRequest atomically upserts the proof, flips the request to
// SETTLED, and zeroes the child's cash balance. A crash cannot leave a
// settled request with cash still standing.
func (r *Repository) SettleRequest(ctx context.Context, requestID string, proof core.Proof, settledAt time.Time) (core.AllowanceRequest, core.Proof, error) {
	var settled core.AllowanceRequest
	var stored core.Proof
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var childID string
		err := tx.QueryRowContext(ctx,
			`SELECT child_id FROM allowance_requests WHERE id = ?`, requestID).Scan(&childID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load request: %w", err)
		}

		// A second upload before settlement replaces the path.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO allowance_proofs (id, request_id, uploader_parent_id, object_path, created_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (request_id) DO UPDATE
			 SET uploader_parent_id = excluded.uploader_parent_id,
			     object_path = excluded.object_path`,
			proof.ID, requestID, proof.UploaderID, proof.ObjectPath, formatTime(proof.CreatedAt)); err != nil {
			return fmt.Errorf("upsert proof: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE allowance_requests SET status = ?, settled_at = ? WHERE id = ?`,
			core.RequestSettled, formatTime(settledAt), requestID); err != nil {
			return fmt.Errorf("settle request: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE wallets SET cash_balance = 0, updated_at = ? WHERE user_id = ?`,
			formatTime(settledAt), childID); err != nil {
			return fmt.Errorf("zero cash balance: %w", err)
		}

		var settledAtStr sql.NullString
		var createdAt string
		if err := tx.QueryRowContext(ctx,
			`SELECT id, child_id, requested_cash, status, settled_at, created_at
			 FROM allowance_requests WHERE id = ?`, requestID).
			Scan(&settled.ID, &settled.ChildID, &settled.RequestedCash, &settled.Status, &settledAtStr, &createdAt); err != nil {
			return fmt.Errorf("reload request: %w", err)
		}
		if settledAtStr.Valid {
			t := parseTime(settledAtStr.String)
			settled.SettledAt = &t
		}
		settled.CreatedAt = parseTime(createdAt)

		var proofCreatedAt string
		if err := tx.QueryRowContext(ctx,
			`SELECT id, request_id, uploader_parent_id, object_path, created_at
			 FROM allowance_proofs WHERE request_id = ?`, requestID).
			Scan(&stored.ID, &stored.RequestID, &stored.UploaderID, &stored.ObjectPath, &proofCreatedAt); err != nil {
			return fmt.Errorf("reload proof: %w", err)
		}
		stored.CreatedAt = parseTime(proofCreatedAt)
		return nil
	})
	if err != nil {
		return core.AllowanceRequest{}, core.Proof{}, err
	}
	return settled, stored, nil
}

// ─── Public holidays ────────────────────────────────────────────────────

// UpsertHolidays refreshes reference data keyed by date.
func (r *Repository) UpsertHolidays(ctx context.Context, holidays []core.Holiday) (int, error) {
	count := 0
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		for _, h := range holidays {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO public_holidays (day_date, name) VALUES (?, ?)
				 ON CONFLICT (day_date) DO UPDATE SET name = excluded.name`,
				h.Date.String(), h.Name); err != nil {
				return fmt.Errorf("upsert holiday %s: %w", h.Date, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Holidays upserted", "count", count)
	return count, nil
}

// ListHolidays returns holidays in [from, to] inclusive, ascending.
func (r *Repository) ListHolidays(ctx context.Context, from, to core.Date) ([]core.Holiday, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT day_date, name FROM public_holidays
		 WHERE day_date >= ? AND day_date <= ? ORDER BY day_date`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []core.Holiday
	for rows.Next() {
		var h core.Holiday
		var dayDate string
		if err := rows.Scan(&dayDate, &h.Name); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		h.Date, err = core.ParseDate(dayDate)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
