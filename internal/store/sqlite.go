package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT UNIQUE COLLATE NOCASE NOT NULL,
        username TEXT NOT NULL,
        password_hash TEXT NOT NULL,
        role TEXT NOT NULL DEFAULT 'normal' CHECK (role IN ('normal', 'enterprise', 'admin')),
        company_name TEXT NOT NULL DEFAULT '',
        business_address TEXT NOT NULL DEFAULT '',
        tax_id TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS tracked_products (
        user_id INTEGER NOT NULL,
        product TEXT NOT NULL,
        UNIQUE (user_id, product),
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS comments (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        product TEXT COLLATE NOCASE NOT NULL,
        text TEXT NOT NULL,
        author TEXT NOT NULL DEFAULT '',
        score INTEGER NOT NULL DEFAULT 0,
        created TEXT NOT NULL DEFAULT '',
        prediction TEXT NOT NULL DEFAULT ''
    );
    CREATE INDEX IF NOT EXISTS idx_comments_product ON comments (product);

    CREATE TABLE IF NOT EXISTS private_comments (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        product TEXT COLLATE NOCASE NOT NULL,
        text TEXT NOT NULL,
        author TEXT NOT NULL DEFAULT '',
        score INTEGER NOT NULL DEFAULT 0,
        created TEXT NOT NULL DEFAULT '',
        prediction TEXT NOT NULL DEFAULT '',
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    CREATE INDEX IF NOT EXISTS idx_private_comments_user_product ON private_comments (user_id, product);

    CREATE TABLE IF NOT EXISTS summaries (
        id TEXT PRIMARY KEY, -- UUID
        product TEXT COLLATE NOCASE NOT NULL,
        total INTEGER NOT NULL,
        positive INTEGER NOT NULL,
        neutral INTEGER NOT NULL,
        negative INTEGER NOT NULL,
        irrelevant INTEGER NOT NULL DEFAULT 0,
        computed_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS model_reports (
        id TEXT PRIMARY KEY, -- UUID
        timestamp DATETIME NOT NULL,
        accuracy REAL NOT NULL,
        f1 REAL NOT NULL,
        drift_detected BOOLEAN NOT NULL DEFAULT FALSE,
        details TEXT NOT NULL DEFAULT ''
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, email, username, password_hash, role, company_name, business_address, tax_id, created_at FROM users WHERE email = ?",
		email,
	).Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role,
		&user.CompanyName, &user.BusinessAddress, &user.TaxID, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(u *User) (*User, error) {
	res, err := s.db.Exec(
		"INSERT INTO users (email, username, password_hash, role, company_name, business_address, tax_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.Email, u.Username, u.PasswordHash, u.Role, u.CompanyName, u.BusinessAddress, u.TaxID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, email, username, password_hash, role, company_name, business_address, tax_id, created_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role,
		&user.CompanyName, &user.BusinessAddress, &user.TaxID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) UpdateUserProfile(email, username, companyName, businessAddress, taxID string) error {
	res, err := s.db.Exec(
		"UPDATE users SET username = ?, company_name = ?, business_address = ?, tax_id = ? WHERE email = ?",
		username, companyName, businessAddress, taxID, email,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user not found, profile not updated")
	}
	return nil
}

func (s *SQLiteStore) UpdateUserPassword(email, passwordHash string) error {
	res, err := s.db.Exec("UPDATE users SET password_hash = ? WHERE email = ?", passwordHash, email)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user not found, password not updated")
	}
	return nil
}

// Tracked product methods. INSERT OR IGNORE gives the ledger its set
// semantics: re-tracking an already tracked product changes nothing.

func (s *SQLiteStore) AddTrackedProduct(userID int64, product string) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO tracked_products (user_id, product) VALUES (?, ?)", userID, product)
	if err != nil {
		return fmt.Errorf("failed to add tracked product: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveTrackedProduct(userID int64, product string) error {
	_, err := s.db.Exec("DELETE FROM tracked_products WHERE user_id = ? AND product = ?", userID, product)
	if err != nil {
		return fmt.Errorf("failed to remove tracked product: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTrackedProducts(userID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT product FROM tracked_products WHERE user_id = ? ORDER BY rowid", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked products: %w", err)
	}
	defer rows.Close()

	products := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan tracked product row: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Comment methods. Product matching is whole-string and case-insensitive
// (COLLATE NOCASE on the column), never a substring match.

func scanComments(rows *sql.Rows) ([]Comment, error) {
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.Product, &c.Text, &c.Author, &c.Score, &c.Created, &c.Prediction); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (s *SQLiteStore) FindCommentsByProduct(product string) ([]Comment, error) {
	rows, err := s.db.Query(
		"SELECT product, text, author, score, created, prediction FROM comments WHERE product = ?",
		product,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	return scanComments(rows)
}

func (s *SQLiteStore) FindPrivateCommentsByProduct(userID int64, product string) ([]Comment, error) {
	rows, err := s.db.Query(
		"SELECT product, text, author, score, created, prediction FROM private_comments WHERE user_id = ? AND product = ?",
		userID, product,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query private comments: %w", err)
	}
	return scanComments(rows)
}

func (s *SQLiteStore) FindTopCommentsByScore(product string, limit int) ([]Comment, error) {
	rows, err := s.db.Query(
		"SELECT product, text, author, score, created, prediction FROM comments WHERE product = ? ORDER BY score DESC LIMIT ?",
		product, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top comments: %w", err)
	}
	return scanComments(rows)
}

func (s *SQLiteStore) FindTopPrivateCommentsByScore(userID int64, product string, limit int) ([]Comment, error) {
	rows, err := s.db.Query(
		"SELECT product, text, author, score, created, prediction FROM private_comments WHERE user_id = ? AND product = ? ORDER BY score DESC LIMIT ?",
		userID, product, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top private comments: %w", err)
	}
	return scanComments(rows)
}

// FindLatestPrivateComment returns the newest private record for the
// product by its created date, or nil if the user has none.
func (s *SQLiteStore) FindLatestPrivateComment(userID int64, product string) (*Comment, error) {
	var c Comment
	err := s.db.QueryRow(
		"SELECT product, text, author, score, created, prediction FROM private_comments WHERE user_id = ? AND product = ? ORDER BY created DESC LIMIT 1",
		userID, product,
	).Scan(&c.Product, &c.Text, &c.Author, &c.Score, &c.Created, &c.Prediction)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No prior crawl
		}
		return nil, fmt.Errorf("failed to query latest private comment: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) InsertComment(c *Comment) error {
	_, err := s.db.Exec(
		"INSERT INTO comments (product, text, author, score, created, prediction) VALUES (?, ?, ?, ?, ?, ?)",
		c.Product, c.Text, c.Author, c.Score, c.Created, c.Prediction,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertPrivateComment(userID int64, c *Comment) error {
	_, err := s.db.Exec(
		"INSERT INTO private_comments (user_id, product, text, author, score, created, prediction) VALUES (?, ?, ?, ?, ?, ?, ?)",
		userID, c.Product, c.Text, c.Author, c.Score, c.Created, c.Prediction,
	)
	if err != nil {
		return fmt.Errorf("failed to insert private comment: %w", err)
	}
	return nil
}

// Summary methods

func (s *SQLiteStore) FindSummaryByProduct(product string) (*Summary, error) {
	var sum Summary
	err := s.db.QueryRow(
		"SELECT id, product, total, positive, neutral, negative, irrelevant, computed_at FROM summaries WHERE product = ? ORDER BY computed_at, rowid LIMIT 1",
		product,
	).Scan(&sum.ID, &sum.Product, &sum.Total, &sum.Positive, &sum.Neutral, &sum.Negative, &sum.Irrelevant, &sum.ComputedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	return &sum, nil
}

func (s *SQLiteStore) InsertSummary(sum *Summary) error {
	sum.ID = uuid.NewString()
	sum.ComputedAt = time.Now()

	stmt, err := s.db.Prepare("INSERT INTO summaries (id, product, total, positive, neutral, negative, irrelevant, computed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare summary insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(sum.ID, sum.Product, sum.Total, sum.Positive, sum.Neutral, sum.Negative, sum.Irrelevant, sum.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to execute summary insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountSummariesByProduct(product string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM summaries WHERE product = ?", product).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return n, nil
}

// Model report methods

func (s *SQLiteStore) InsertModelReport(r *ModelReport) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		"INSERT INTO model_reports (id, timestamp, accuracy, f1, drift_detected, details) VALUES (?, ?, ?, ?, ?, ?)",
		r.ID, r.Timestamp, r.Accuracy, r.F1, r.DriftDetected, r.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to insert model report: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLatestModelReports(limit int) ([]ModelReport, error) {
	rows, err := s.db.Query(
		"SELECT id, timestamp, accuracy, f1, drift_detected, details FROM model_reports ORDER BY timestamp DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query model reports: %w", err)
	}
	defer rows.Close()

	var reports []ModelReport
	for rows.Next() {
		var r ModelReport
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Accuracy, &r.F1, &r.DriftDetected, &r.Details); err != nil {
			return nil, fmt.Errorf("failed to scan model report row: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// IngestCommentsFromFile loads a JSON array of labeled comments into the
// public comment store. Run via the -ingest flag after a crawl/classify
// batch completes out of band.
func (s *SQLiteStore) IngestCommentsFromFile(filePath string) (int, error) {
	contentBytes, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read data file %s: %w", filePath, err)
	}

	var comments []Comment
	if err := json.Unmarshal(contentBytes, &comments); err != nil {
		return 0, fmt.Errorf("failed to parse data file %s: %w", filePath, err)
	}

	count := 0
	for i, c := range comments {
		if c.Product == "" || c.Text == "" {
			log.Printf("Skipping record %d: missing product or text", i+1)
			continue
		}
		if err := s.InsertComment(&c); err != nil {
			log.Printf("Failed to store comment %d: %v. Skipping.", i+1, err)
			continue
		}
		count++
	}
	log.Printf("Successfully ingested %d/%d comments.", count, len(comments))
	return count, nil
}
