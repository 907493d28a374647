package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AddMapping records a client → server ID association created when a creation
// mutation succeeds. A client ID maps to exactly one server ID for the life
// of the store; re-adding an existing client ID keeps the first mapping.
func (s *Store) AddMapping(ctx context.Context, clientID, serverID string) error {
	if clientID == "" || serverID == "" {
		return errors.New("client and server ids must not be empty")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO id_map (client_id, server_id, created_at) VALUES (?, ?, ?)`,
		clientID,
		serverID,
		nowTimestamp(),
	)
	if err != nil {
		return fmt.Errorf("add id mapping: %w", err)
	}
	return nil
}

// Resolve returns the server ID mapped to the given identifier, or the input
// unchanged when no mapping exists. IDs that were never client-generated
// resolve to themselves.
func (s *Store) Resolve(ctx context.Context, id string) (string, error) {
	if id == "" {
		return id, nil
	}
	var serverID string
	err := s.db.QueryRowContext(ctx, `SELECT server_id FROM id_map WHERE client_id = ?`, id).Scan(&serverID)
	if errors.Is(err, sql.ErrNoRows) {
		return id, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}
	return serverID, nil
}

// Mappings returns every recorded client → server association.
func (s *Store) Mappings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT client_id, server_id FROM id_map`)
	if err != nil {
		return nil, fmt.Errorf("list id mappings: %w", err)
	}
	defer rows.Close()

	mappings := make(map[string]string)
	for rows.Next() {
		var clientID, serverID string
		if err := rows.Scan(&clientID, &serverID); err != nil {
			return nil, err
		}
		mappings[clientID] = serverID
	}
	return mappings, rows.Err()
}
