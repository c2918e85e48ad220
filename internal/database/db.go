package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"backtester/internal/model"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS backtest_runs (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT,
			ticker TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			sma_period INT NOT NULL,
			rule_condition TEXT NOT NULL,
			rule_then_action TEXT NOT NULL,
			rule_else_action TEXT NOT NULL,
			total_return DOUBLE PRECISION NOT NULL,
			win_rate DOUBLE PRECISION NOT NULL,
			number_of_trades INT NOT NULL,
			final_portfolio_value DOUBLE PRECISION NOT NULL,
			sharpe_ratio DOUBLE PRECISION NOT NULL,
			equity_curve JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			execution_seconds DOUBLE PRECISION
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_backtest_runs_ticker ON backtest_runs (ticker)`)
	return err
}

// ErrDuplicateEmail is returned when registering an email that already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// CreateUser inserts a new user with a bcrypt-hashed password.
func (db *DB) CreateUser(email, hashedPassword string) (*model.User, error) {
	user := &model.User{
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
	}

	err := db.QueryRow(`
		INSERT INTO users (email, hashed_password)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at
	`, email, hashedPassword).Scan(&user.ID, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when absent.
func (db *DB) GetUserByEmail(email string) (*model.User, error) {
	var user model.User

	err := db.QueryRow(`
		SELECT id, email, hashed_password, is_active, is_premium, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.HashedPassword,
		&user.IsActive, &user.IsPremium, &user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByID retrieves a user by id. Returns (nil, nil) when absent.
func (db *DB) GetUserByID(id int64) (*model.User, error) {
	var user model.User

	err := db.QueryRow(`
		SELECT id, email, hashed_password, is_active, is_premium, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.HashedPassword,
		&user.IsActive, &user.IsPremium, &user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// SetPremium flips the premium flag for a user.
func (db *DB) SetPremium(userID int64, premium bool) error {
	_, err := db.Exec(`
		UPDATE users
		SET is_premium = $1
		WHERE id = $2
	`, premium, userID)

	return err
}

// SaveRun persists a completed backtest run together with its equity curve.
func (db *DB) SaveRun(run *model.Run, curve []model.EquityPoint) (int64, error) {
	curveJSON, err := json.Marshal(curve)
	if err != nil {
		return 0, fmt.Errorf("marshaling equity curve: %w", err)
	}

	var userID sql.NullInt64
	if run.UserID > 0 {
		userID = sql.NullInt64{Int64: run.UserID, Valid: true}
	}

	var id int64
	err = db.QueryRow(`
		INSERT INTO backtest_runs (
			user_id, ticker, start_date, end_date, sma_period,
			rule_condition, rule_then_action, rule_else_action,
			total_return, win_rate, number_of_trades,
			final_portfolio_value, sharpe_ratio, equity_curve, execution_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		userID, run.Ticker, run.StartDate, run.EndDate, run.SMAPeriod,
		run.Rule.Condition.String(), run.Rule.ThenAction.String(), run.Rule.ElseAction.String(),
		run.TotalReturn, run.WinRate, run.NumberOfTrades,
		run.FinalPortfolioValue, run.SharpeRatio, curveJSON, run.ExecutionSeconds,
	).Scan(&id)

	if err != nil {
		return 0, err
	}

	return id, nil
}

// UserRuns returns the most recent runs for a user, newest first.
func (db *DB) UserRuns(userID int64, limit int) ([]model.Run, error) {
	rows, err := db.Query(`
		SELECT id, ticker, start_date, end_date, sma_period,
			rule_condition, rule_then_action, rule_else_action,
			total_return, win_rate, number_of_trades,
			final_portfolio_value, sharpe_ratio, created_at
		FROM backtest_runs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run                       model.Run
			condStr, thenStr, elseStr string
		)
		if err := rows.Scan(
			&run.ID, &run.Ticker, &run.StartDate, &run.EndDate, &run.SMAPeriod,
			&condStr, &thenStr, &elseStr,
			&run.TotalReturn, &run.WinRate, &run.NumberOfTrades,
			&run.FinalPortfolioValue, &run.SharpeRatio, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		run.UserID = userID
		if run.Rule.Condition, err = model.ParseCondition(condStr); err != nil {
			return nil, fmt.Errorf("run %d: %w", run.ID, err)
		}
		if run.Rule.ThenAction, err = model.ParseAction(thenStr); err != nil {
			return nil, fmt.Errorf("run %d: %w", run.ID, err)
		}
		if run.Rule.ElseAction, err = model.ParseAction(elseStr); err != nil {
			return nil, fmt.Errorf("run %d: %w", run.ID, err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// PopularTickers returns the most-backtested tickers across all users.
// This is a pure read path over persisted runs, independent of the engine.
func (db *DB) PopularTickers(limit int) ([]model.TickerCount, error) {
	rows, err := db.Query(`
		SELECT ticker, COUNT(*) AS cnt
		FROM backtest_runs
		GROUP BY ticker
		ORDER BY cnt DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []model.TickerCount
	for rows.Next() {
		var tc model.TickerCount
		if err := rows.Scan(&tc.Ticker, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}

	return counts, rows.Err()
}
