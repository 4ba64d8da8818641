package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	dbInstance := &DB{db}

	// Configure connection pool
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := dbInstance.initSchema(); err != nil {
		return nil, err
	}

	return dbInstance, nil
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL,
		wallet_address TEXT NOT NULL,
		tx_signature TEXT UNIQUE,
		trade_type TEXT,
		token_address TEXT,
		sol_amount REAL,
		token_amount REAL,
		price_per_token REAL,
		jito_tip REAL,
		status TEXT,
		created_at INTEGER,
		confirmed_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_trades_user_time
	ON trades(chat_id, created_at DESC);
	`
	_, err := db.Exec(schema)
	return err
}

// Trade records one outcome of the fan-out engine's bundle submission
// (spec.md §4.F/§4.G); chat_id is overloaded as follower_id outside the
// teacher's original Telegram-chat context, the column name kept from the
// teacher's trades table rather than renamed.
type Trade struct {
	ID            int64
	ChatID        int64
	WalletAddress string
	TxSignature   string
	TradeType     string // "buy" or "sell"
	TokenAddress  string
	SolAmount     float64
	TokenAmount   float64
	PricePerToken float64
	JitoTip       float64
	Status        string // "pending", "confirmed", "finalized", "failed"
	CreatedAt     int64
	ConfirmedAt   int64
}

// SaveTrade saves a trade record
func (db *DB) SaveTrade(userID int64, walletAddr, signature, tradeType, tokenAddr string, solAmount, tokenAmount, pricePerToken, jitoTip float64, status string) error {
	query := `
		INSERT INTO trades (chat_id, wallet_address, tx_signature, trade_type, token_address, sol_amount, token_amount, price_per_token, jito_tip, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, userID, walletAddr, signature, tradeType, tokenAddr, solAmount, tokenAmount, pricePerToken, jitoTip, status, time.Now().Unix())
	return err
}

// GetRecentTrades retrieves recent trades for a user
func (db *DB) GetRecentTrades(userID int64, limit int) ([]*Trade, error) {
	query := `SELECT id, chat_id, wallet_address, tx_signature, trade_type, token_address, sol_amount, token_amount, price_per_token, jito_tip, status, created_at, confirmed_at FROM trades WHERE chat_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		var t Trade
		var confirmedAt sql.NullInt64
		var signature sql.NullString

		if err := rows.Scan(&t.ID, &t.ChatID, &t.WalletAddress, &signature, &t.TradeType, &t.TokenAddress, &t.SolAmount, &t.TokenAmount, &t.PricePerToken, &t.JitoTip, &t.Status, &t.CreatedAt, &confirmedAt); err != nil {
			return nil, err
		}

		if signature.Valid {
			t.TxSignature = signature.String
		}
		if confirmedAt.Valid {
			t.ConfirmedAt = confirmedAt.Int64
		}

		trades = append(trades, &t)
	}
	return trades, nil
}

// UpdateTradeStatus updates the status of a trade
func (db *DB) UpdateTradeStatus(signature, status string, confirmedAt int64) error {
	query := `UPDATE trades SET status = ?, confirmed_at = ? WHERE tx_signature = ?`
	_, err := db.Exec(query, status, confirmedAt, signature)
	return err
}
