package store

import (
	"context"
	"fmt"

	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

const serviceColumns = `id::text, name, price::text, duration_minutes, active`

// ListServices returns every service ordered by name.
func (s *Store) ListServices(ctx context.Context) ([]scheduling.Service, error) {
	rows, err := s.db.Query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list services: %w", err)
	}
	defer rows.Close()

	var out []scheduling.Service
	for rows.Next() {
		var svc scheduling.Service
		var price string
		if err := rows.Scan(&svc.ID, &svc.Name, &price, &svc.DurationMinutes, &svc.Active); err != nil {
			return nil, fmt.Errorf("store: scan service: %w", err)
		}
		if svc.Price, err = parseMoney(price); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// GetService loads one service.
func (s *Store) GetService(ctx context.Context, id string) (scheduling.Service, error) {
	var svc scheduling.Service
	var price string
	err := s.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id).
		Scan(&svc.ID, &svc.Name, &price, &svc.DurationMinutes, &svc.Active)
	if notFound(err) {
		return scheduling.Service{}, fmt.Errorf("store: service %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return scheduling.Service{}, fmt.Errorf("store: get service: %w", err)
	}
	if svc.Price, err = parseMoney(price); err != nil {
		return scheduling.Service{}, err
	}
	return svc, nil
}
