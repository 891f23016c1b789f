package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/marketchat/internal/store"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema or seed rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; ":memory:" needs it to keep one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ApplySchema creates the tables if they do not exist.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func now() time.Time {
	return time.Now().UTC()
}

func notFound(what string, id any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, store.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

// ==== UserStore implementation ====

// CreateUser inserts a member.
func (s *SQLiteStore) CreateUser(ctx context.Context, nickname, avatarURL string) (*store.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (nickname, avatar_url, created_at) VALUES (?, ?, ?)`,
		nickname, avatarURL, now())
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	var user store.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nickname, avatar_url, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Nickname, &user.AvatarURL, &user.CreatedAt)
	if err != nil {
		return nil, notFound("user", id, err)
	}
	return &user, nil
}

// ==== ProductStore implementation ====

// CreateProduct inserts a listing and fills its ID.
func (s *SQLiteStore) CreateProduct(ctx context.Context, p *store.Product) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	var price sql.NullString
	if p.Price != nil {
		price = sql.NullString{String: *p.Price, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO products (seller_id, title, thumbnail, price, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.SellerID, p.Title, p.Thumbnail, price, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	if p.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	return nil
}

// GetProduct retrieves a listing by ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*store.Product, error) {
	var p store.Product
	var price sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, seller_id, title, thumbnail, price, created_at FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.SellerID, &p.Title, &p.Thumbnail, &price, &p.CreatedAt)
	if err != nil {
		return nil, notFound("product", id, err)
	}
	if price.Valid {
		p.Price = &price.String
	}
	return &p, nil
}

// ==== SessionStore implementation ====

const sessionColumns = `id, buyer_id, seller_id, product_id, last_message, last_type, last_sender_id, last_time, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*store.ChatSession, error) {
	var sess store.ChatSession
	var productID sql.NullInt64
	var lastTime sql.NullTime
	if err := row.Scan(
		&sess.ID,
		&sess.BuyerID,
		&sess.SellerID,
		&productID,
		&sess.LastMessage,
		&sess.LastType,
		&sess.LastSenderID,
		&lastTime,
		&sess.CreatedAt,
	); err != nil {
		return nil, err
	}
	if productID.Valid {
		sess.ProductID = &productID.Int64
	}
	if lastTime.Valid {
		sess.LastTime = lastTime.Time
	}
	return &sess, nil
}

// CreateSession inserts a session and fills its ID.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *store.ChatSession) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now()
	}
	var lastTime sql.NullTime
	if !sess.LastTime.IsZero() {
		lastTime = sql.NullTime{Time: sess.LastTime, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (buyer_id, seller_id, product_id, last_message, last_type, last_sender_id, last_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.BuyerID, sess.SellerID, sess.ProductID, sess.LastMessage, sess.LastType, sess.LastSenderID, lastTime, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if sess.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	return nil
}

// FindSession looks a session up by participants and product.
func (s *SQLiteStore) FindSession(ctx context.Context, buyerID, sellerID int64, productID *int64) (*store.ChatSession, error) {
	var row *sql.Row
	if productID == nil {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+sessionColumns+` FROM chat_sessions WHERE buyer_id = ? AND seller_id = ? AND product_id IS NULL`,
			buyerID, sellerID)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+sessionColumns+` FROM chat_sessions WHERE buyer_id = ? AND seller_id = ? AND product_id = ?`,
			buyerID, sellerID, *productID)
	}
	sess, err := scanSession(row)
	if err != nil {
		return nil, notFound("session", fmt.Sprintf("%d/%d", buyerID, sellerID), err)
	}
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (*store.ChatSession, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("session", id, err)
	}
	return sess, nil
}

// ListSessions lists the sessions of a user, most recent activity first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID int64) ([]*store.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM chat_sessions
		WHERE buyer_id = ? OR seller_id = ?
		ORDER BY COALESCE(last_time, created_at) DESC, id DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*store.ChatSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// TouchSession records msg as the latest activity of its session.
func (s *SQLiteStore) TouchSession(ctx context.Context, msg *store.ChatMessage) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE chat_sessions
		SET last_message = ?, last_type = ?, last_sender_id = ?, last_time = ?
		WHERE id = ?
	`, msg.Content, msg.Type, msg.SenderID, msg.CreatedAt, msg.SessionID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireRow(result, "session", msg.SessionID)
}

// ==== MessageStore implementation ====

const messageColumns = `id, session_id, sender_id, type, content, is_read, created_at`

func scanMessage(row rowScanner) (*store.ChatMessage, error) {
	var msg store.ChatMessage
	if err := row.Scan(&msg.ID, &msg.SessionID, &msg.SenderID, &msg.Type, &msg.Content, &msg.Read, &msg.CreatedAt); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SaveMessage persists a message and fills its ID.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, sender_id, type, content, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.SessionID, msg.SenderID, msg.Type, msg.Content, msg.Read, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if msg.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.ChatMessage, error) {
	msg, err := scanMessage(s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("message", id, err)
	}
	return msg, nil
}

// ListMessages returns the messages of a session in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID int64) ([]*store.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.ChatMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// RecallMessage turns a message into its recalled form.
func (s *SQLiteStore) RecallMessage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chat_messages SET type = 'RECALL', content = '' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("recall message: %w", err)
	}
	return requireRow(result, "message", id)
}

// MarkSessionRead marks messages not sent by readerID as read.
func (s *SQLiteStore) MarkSessionRead(ctx context.Context, sessionID, readerID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chat_messages SET is_read = 1 WHERE session_id = ? AND sender_id != ? AND is_read = 0`,
		sessionID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark session read: %w", err)
	}
	return result.RowsAffected()
}

// MarkAllRead marks every counterpart message in readerID's sessions as read.
func (s *SQLiteStore) MarkAllRead(ctx context.Context, readerID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE chat_messages SET is_read = 1
		WHERE is_read = 0
		  AND sender_id != ?
		  AND session_id IN (SELECT id FROM chat_sessions WHERE buyer_id = ? OR seller_id = ?)
	`, readerID, readerID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return result.RowsAffected()
}

// CountUnread counts counterpart messages readerID has not read.
func (s *SQLiteStore) CountUnread(ctx context.Context, sessionID, readerID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE session_id = ? AND sender_id != ? AND is_read = 0`,
		sessionID, readerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// ==== FavoriteStore implementation ====

// ListFavorites returns the favorited product ids of a user.
func (s *SQLiteStore) ListFavorites(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id FROM favorites WHERE user_id = ? ORDER BY product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddFavorite is idempotent.
func (s *SQLiteStore) AddFavorite(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, product_id, created_at) VALUES (?, ?, ?)`,
		userID, productID, now())
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// RemoveFavorite is idempotent.
func (s *SQLiteStore) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, store.ErrNotFound)
	}
	return nil
}
