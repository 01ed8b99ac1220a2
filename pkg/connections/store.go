// Package connections persists named Metabase connections: the instance
// URL, the login, the sealed password, and the last session token.
package connections

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dashforge/dashforge/pkg/metabase"
)

// ErrNotFound is returned when a named connection does not exist. Callers
// report it distinctly from backend failures.
var ErrNotFound = errors.New("connection not found")

type Connection struct {
	ID                int
	Name              string
	URL               string
	Username          string
	PasswordEncrypted string
	SessionToken      string
}

// Connected reports whether the connection has a cached session token.
func (c *Connection) Connected() bool {
	return c.SessionToken != ""
}

type Store struct {
	db     *sql.DB
	cipher *Cipher
}

// NewStore opens (or creates) the connection database under dataPath.
func NewStore(dataPath string, cipher *Cipher) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0766); err != nil {
		return nil, fmt.Errorf("failed to create data path '%s': %w", dataPath, err)
	}

	dbPath := filepath.Join(dataPath, "connections.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open connection store: %w", err)
	}

	store := &Store{db: db, cipher: cipher}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize connection store: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS connections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		username TEXT NOT NULL,
		password_encrypted TEXT NOT NULL,
		session_token TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_connections_name ON connections(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert creates or replaces a named connection, sealing the password.
func (s *Store) Upsert(name string, url string, username string, password string, sessionToken string) (*Connection, error) {
	sealed, err := s.cipher.Seal(password)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`
		INSERT INTO connections (name, url, username, password_encrypted, session_token)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			username = excluded.username,
			password_encrypted = excluded.password_encrypted,
			session_token = excluded.session_token`,
		name, url, username, sealed, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("failed to save connection '%s': %w", name, err)
	}

	return s.Get(name)
}

func (s *Store) Get(name string) (*Connection, error) {
	conn := &Connection{}
	var token sql.NullString
	err := s.db.QueryRow(`
		SELECT id, name, url, username, password_encrypted, session_token
		FROM connections WHERE name = ?`, name).
		Scan(&conn.ID, &conn.Name, &conn.URL, &conn.Username, &conn.PasswordEncrypted, &token)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("'%s': %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection '%s': %w", name, err)
	}
	conn.SessionToken = token.String

	return conn, nil
}

func (s *Store) List() ([]*Connection, error) {
	rows, err := s.db.Query(`
		SELECT id, name, url, username, password_encrypted, session_token
		FROM connections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	connections := []*Connection{}
	for rows.Next() {
		conn := &Connection{}
		var token sql.NullString
		if err := rows.Scan(&conn.ID, &conn.Name, &conn.URL, &conn.Username, &conn.PasswordEncrypted, &token); err != nil {
			return nil, err
		}
		conn.SessionToken = token.String
		connections = append(connections, conn)
	}

	return connections, rows.Err()
}

func (s *Store) Delete(name string) error {
	result, err := s.db.Exec(`DELETE FROM connections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete connection '%s': %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("'%s': %w", name, ErrNotFound)
	}

	return nil
}

// SetSessionToken persists a refreshed token. Implements
// metabase.TokenStore.
func (s *Store) SetSessionToken(name string, token string) error {
	_, err := s.db.Exec(`UPDATE connections SET session_token = ? WHERE name = ?`, token, name)
	if err != nil {
		return fmt.Errorf("failed to update session token for '%s': %w", name, err)
	}
	return nil
}

// Credentials unseals the stored password and returns the credential used
// to (re-)authenticate against the connection's Metabase instance.
func (s *Store) Credentials(conn *Connection) (metabase.Credentials, error) {
	password, err := s.cipher.Open(conn.PasswordEncrypted)
	if err != nil {
		return metabase.Credentials{}, fmt.Errorf("connection '%s': %w", conn.Name, err)
	}

	return metabase.Credentials{
		URL:      conn.URL,
		Username: conn.Username,
		Password: password,
	}, nil
}
