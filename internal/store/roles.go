package store

import (
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
)

// HasRole reports whether identity belongs to role.
func (t *Tx) HasRole(role ir.Role, identity string) (bool, error) {
	var count int
	err := t.queryRow(`
		SELECT COUNT(*) FROM roles WHERE role = ? AND identity = ?
	`, string(role), identity).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check role %s: %w", role, err)
	}
	return count > 0, nil
}

// AddRole inserts identity into role.
// Returns false if the identity was already a member.
func (t *Tx) AddRole(role ir.Role, identity string) (bool, error) {
	result, err := t.exec(`
		INSERT INTO roles (role, identity) VALUES (?, ?)
		ON CONFLICT(role, identity) DO NOTHING
	`, string(role), identity)
	if err != nil {
		return false, fmt.Errorf("add role %s: %w", role, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add role %s: rows affected: %w", role, err)
	}
	return n > 0, nil
}

// RemoveRole deletes identity from role.
// Returns false if the identity was not a member.
func (t *Tx) RemoveRole(role ir.Role, identity string) (bool, error) {
	result, err := t.exec(`
		DELETE FROM roles WHERE role = ? AND identity = ?
	`, string(role), identity)
	if err != nil {
		return false, fmt.Errorf("remove role %s: %w", role, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove role %s: rows affected: %w", role, err)
	}
	return n > 0, nil
}

// CountRole returns the cardinality of role.
func (t *Tx) CountRole(role ir.Role) (int, error) {
	var count int
	err := t.queryRow(`SELECT COUNT(*) FROM roles WHERE role = ?`, string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count role %s: %w", role, err)
	}
	return count, nil
}

// ListRole returns the members of role in identity order.
// Returns an empty slice (not nil) if the role has no members.
func (t *Tx) ListRole(role ir.Role) ([]string, error) {
	rows, err := t.query(`
		SELECT identity FROM roles WHERE role = ?
		ORDER BY identity COLLATE BINARY ASC
	`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list role %s: %w", role, err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scan role %s: %w", role, err)
		}
		members = append(members, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role %s: %w", role, err)
	}
	return members, nil
}
