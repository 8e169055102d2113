// Package store persists Server, Integration, and Tunnel records in a local
// sqlite database. Entities are stored as JSON payloads keyed by their
// opaque record identifier, with a few extracted columns for the simple
// field-equality filters the coordinators need.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/halyard-dev/halyard/internal/domain"
)

// ErrNotFound is returned when no record matches the given identifier.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS integrations (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS servers (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			integration_id TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tunnels (
			id TEXT PRIMARY KEY,
			remote_id TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Integrations

func (s *Store) SaveIntegration(i *domain.Integration) error {
	payload, err := json.Marshal(i)
	if err != nil {
		return fmt.Errorf("encoding integration: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO integrations (id, type, payload) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET type = excluded.type, payload = excluded.payload`,
		i.ID, string(i.Type), string(payload))
	return err
}

func (s *Store) GetIntegration(id string) (*domain.Integration, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM integrations WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var i domain.Integration
	if err := json.Unmarshal([]byte(payload), &i); err != nil {
		return nil, fmt.Errorf("decoding integration %s: %w", id, err)
	}
	return &i, nil
}

func (s *Store) ListIntegrations() ([]*domain.Integration, error) {
	rows, err := s.db.Query(`SELECT payload FROM integrations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Integration
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var i domain.Integration
		if err := json.Unmarshal([]byte(payload), &i); err != nil {
			return nil, fmt.Errorf("decoding integration: %w", err)
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

func (s *Store) DeleteIntegration(id string) error {
	return s.deleteByID("integrations", id)
}

// Servers

func (s *Store) SaveServer(srv *domain.Server) error {
	payload, err := json.Marshal(srv)
	if err != nil {
		return fmt.Errorf("encoding server: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO servers (id, status, integration_id, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status,
			integration_id = excluded.integration_id, payload = excluded.payload`,
		srv.ID, string(srv.Status), srv.IntegrationID, string(payload))
	return err
}

func (s *Store) GetServer(id string) (*domain.Server, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM servers WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var srv domain.Server
	if err := json.Unmarshal([]byte(payload), &srv); err != nil {
		return nil, fmt.Errorf("decoding server %s: %w", id, err)
	}
	return &srv, nil
}

func (s *Store) ListServers() ([]*domain.Server, error) {
	rows, err := s.db.Query(`SELECT payload FROM servers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Server
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var srv domain.Server
		if err := json.Unmarshal([]byte(payload), &srv); err != nil {
			return nil, fmt.Errorf("decoding server: %w", err)
		}
		out = append(out, &srv)
	}
	return out, rows.Err()
}

func (s *Store) DeleteServer(id string) error {
	return s.deleteByID("servers", id)
}

// Tunnels

func (s *Store) SaveTunnel(t *domain.Tunnel) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding tunnel: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO tunnels (id, remote_id, payload) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET remote_id = excluded.remote_id, payload = excluded.payload`,
		t.ID, t.RemoteID, string(payload))
	return err
}

func (s *Store) GetTunnel(id string) (*domain.Tunnel, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM tunnels WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t domain.Tunnel
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("decoding tunnel %s: %w", id, err)
	}
	return &t, nil
}

func (s *Store) DeleteTunnel(id string) error {
	return s.deleteByID("tunnels", id)
}

func (s *Store) deleteByID(table, id string) error {
	res, err := s.db.Exec(`DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
