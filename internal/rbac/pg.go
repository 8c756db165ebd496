package rbac

import (
	"context"
	"database/sql"
)

// PGChecker reads grants from the user_permissions table.
type PGChecker struct {
	DB *sql.DB
}

// HasPermission implements Checker. A "*" permission row grants everything.
func (c *PGChecker) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM user_permissions
    WHERE user_id = $1 AND permission IN ($2, '*')
)`
	var ok bool
	if err := c.DB.QueryRowContext(ctx, query, userID, permission).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

var _ Checker = (*PGChecker)(nil)
