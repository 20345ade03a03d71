package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/rss-retitle/app/rules"
)

var ErrRuleNotFound = errors.New("rule not found")

type StoredRule struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Pattern     string    `json:"pattern"`
	Replacement string    `json:"replacement"`
	Priority    uint32    `json:"priority"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RuleRepository interface {
	rules.Source

	ListRules(ctx context.Context) ([]StoredRule, error)
	CreateRule(ctx context.Context, rule rules.Rule) (int64, error)
	DeleteRule(ctx context.Context, id int64) error
	SetRuleEnabled(ctx context.Context, id int64, enabled bool) error
}

var _ RuleRepository = (*SQLRuleRepository)(nil)

// SQLRuleRepository persists title rules in SQLite.
type SQLRuleRepository struct {
	db *DB
}

func NewRuleRepository(db *DB) *SQLRuleRepository {
	return &SQLRuleRepository{db: db}
}

// LoadRules returns enabled rules in priority order.
func (r *SQLRuleRepository) LoadRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, pattern, replacement, priority
		FROM title_rules
		WHERE enabled = 1
		ORDER BY priority, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var result []rules.Rule
	for rows.Next() {
		var rule rules.Rule
		if err := rows.Scan(&rule.Name, &rule.Pattern, &rule.Replacement, &rule.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		result = append(result, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule rows: %w", err)
	}

	return result, nil
}

func (r *SQLRuleRepository) ListRules(ctx context.Context) ([]StoredRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, pattern, replacement, priority, enabled, created_at, updated_at
		FROM title_rules
		ORDER BY priority, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var result []StoredRule
	for rows.Next() {
		var rule StoredRule
		err := rows.Scan(&rule.ID, &rule.Name, &rule.Pattern, &rule.Replacement, &rule.Priority,
			&rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		result = append(result, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule rows: %w", err)
	}

	return result, nil
}

func (r *SQLRuleRepository) CreateRule(ctx context.Context, rule rules.Rule) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO title_rules (name, pattern, replacement, priority)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, rule.Name, rule.Pattern, rule.Replacement, rule.Priority).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert rule: %w", err)
	}

	return id, nil
}

func (r *SQLRuleRepository) DeleteRule(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM title_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	return requireAffected(result, id)
}

func (r *SQLRuleRepository) SetRuleEnabled(ctx context.Context, id int64, enabled bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE title_rules
		SET enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	return requireAffected(result, id)
}

func requireAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, ErrRuleNotFound)
	}
	return nil
}
