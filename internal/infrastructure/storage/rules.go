package storage

import "time"

// CreateMatchingRule inserts a rule and sets its ID.
func (s *Storage) CreateMatchingRule(rule *MatchingRule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	if rule.Priority == 0 {
		rule.Priority = 1
	}

	query := `
	INSERT INTO matching_rules (name, description, active, priority, value_criteria, date_criteria, text_criteria, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		rule.Name,
		rule.Description,
		rule.Active,
		rule.Priority,
		rule.ValueCriteria,
		rule.DateCriteria,
		rule.TextCriteria,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rule.ID, err = result.LastInsertId()
	return err
}

// ListMatchingRules returns all rules, highest priority first.
func (s *Storage) ListMatchingRules() ([]*MatchingRule, error) {
	query := `
	SELECT id, name, description, active, priority, value_criteria, date_criteria, text_criteria, created_at, updated_at
	FROM matching_rules ORDER BY priority DESC, id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rules []*MatchingRule
	for rows.Next() {
		rule := &MatchingRule{}
		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Description,
			&rule.Active,
			&rule.Priority,
			&rule.ValueCriteria,
			&rule.DateCriteria,
			&rule.TextCriteria,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}
