package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

// DeleteOutcome reports how DeleteAttribute resolved.
type DeleteOutcome string

const (
	OutcomeDeleted     DeleteOutcome = "deleted"
	OutcomeDeactivated DeleteOutcome = "deactivated"
)

const attributeColumns = "id, name, description, cost, active, icon, color, created_at, updated_at"

func scanAttribute(row interface{ Scan(...interface{}) error }) (*models.Attribute, error) {
	var a models.Attribute
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Cost, &a.Active, &a.Icon, &a.Color, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAttributes returns the catalog. When activeOnly is set, deactivated
// entries are filtered out; admin views pass false and see everything.
func (l *Ledger) ListAttributes(ctx context.Context, activeOnly bool) ([]models.Attribute, error) {
	query := "SELECT " + attributeColumns + " FROM bursar.coin_attributes"
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY name"

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	defer rows.Close()

	attributes := []models.Attribute{}
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attributes = append(attributes, *a)
	}
	return attributes, rows.Err()
}

// GetAttribute returns one attribute by ID, active or not.
func (l *Ledger) GetAttribute(ctx context.Context, id string) (*models.Attribute, error) {
	row := l.db.QueryRowContext(ctx,
		"SELECT "+attributeColumns+" FROM bursar.coin_attributes WHERE id = $1", id)
	a, err := scanAttribute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attribute: %w", err)
	}
	return a, nil
}

// CreateAttribute adds a new catalog entry. Names are unique across the
// catalog regardless of active state.
func (l *Ledger) CreateAttribute(ctx context.Context, name, description string, cost int64, icon, color string) (*models.Attribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if cost < 1 {
		return nil, fmt.Errorf("cost must be at least 1")
	}

	attr := &models.Attribute{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Cost:        cost,
		Active:      true,
		Icon:        icon,
		Color:       color,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO bursar.coin_attributes (id, name, description, cost, active, icon, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, attr.ID, attr.Name, attr.Description, attr.Cost, attr.Active, attr.Icon, attr.Color, attr.CreatedAt, attr.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create attribute: %w", err)
	}

	return attr, nil
}

// UpdateAttribute applies a partial update. Nil fields are untouched. Cost
// changes affect future transfers only; recorded transactions keep the amount
// they were committed with.
func (l *Ledger) UpdateAttribute(ctx context.Context, id string, name, description *string, cost *int64, active *bool, icon, color *string) (*models.Attribute, error) {
	if cost != nil && *cost < 1 {
		return nil, fmt.Errorf("cost must be at least 1")
	}
	if name != nil && strings.TrimSpace(*name) == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	row := l.db.QueryRowContext(ctx, `
		UPDATE bursar.coin_attributes
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    cost = COALESCE($4, cost),
		    active = COALESCE($5, active),
		    icon = COALESCE($6, icon),
		    color = COALESCE($7, color),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+attributeColumns, id, name, description, cost, active, icon, color)

	a, err := scanAttribute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update attribute: %w", err)
	}
	return a, nil
}

// DeleteAttribute removes an attribute when no transaction references it.
// Referenced attributes are deactivated instead so historical ledger rows
// stay resolvable.
func (l *Ledger) DeleteAttribute(ctx context.Context, id string) (DeleteOutcome, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is best-effort

	var referenced bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM bursar.coin_transactions WHERE attribute_id = $1)
	`, id).Scan(&referenced)
	if err != nil {
		return "", fmt.Errorf("failed to check attribute references: %w", err)
	}

	outcome := OutcomeDeleted
	if referenced {
		outcome = OutcomeDeactivated
		res, err := tx.ExecContext(ctx, `
			UPDATE bursar.coin_attributes SET active = FALSE, updated_at = NOW() WHERE id = $1
		`, id)
		if err != nil {
			return "", fmt.Errorf("failed to deactivate attribute: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return "", ErrNotFound
		}
	} else {
		res, err := tx.ExecContext(ctx, `DELETE FROM bursar.coin_attributes WHERE id = $1`, id)
		if err != nil {
			return "", fmt.Errorf("failed to delete attribute: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return "", ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return outcome, nil
}
