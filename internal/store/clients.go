package store

import (
	"context"
	"fmt"

	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

// ListClients returns every client ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]scheduling.Client, error) {
	rows, err := s.db.Query(ctx, `SELECT id::text, name, phone, created_at FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list clients: %w", err)
	}
	defer rows.Close()

	var out []scheduling.Client
	for rows.Next() {
		var c scheduling.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan client: %w", err)
		}
		c.CreatedAt = c.CreatedAt.In(s.loc)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetClient loads one client.
func (s *Store) GetClient(ctx context.Context, id string) (scheduling.Client, error) {
	var c scheduling.Client
	err := s.db.QueryRow(ctx, `SELECT id::text, name, phone, created_at FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.CreatedAt)
	if notFound(err) {
		return scheduling.Client{}, fmt.Errorf("store: client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return scheduling.Client{}, fmt.Errorf("store: get client: %w", err)
	}
	c.CreatedAt = c.CreatedAt.In(s.loc)
	return c, nil
}
