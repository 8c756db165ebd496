package rbac

import (
	"context"
	"strings"
)

// Wildcard grants every permission or matches every user.
const Wildcard = "*"

// StaticChecker serves grants from configuration.
type StaticChecker struct {
	grants map[string]map[string]struct{}
}

// ParseGrants reads "user=perm1|perm2;other=*" as used by RBAC_GRANTS.
// A user of "*" applies to everyone.
func ParseGrants(raw string) *StaticChecker {
	c := &StaticChecker{grants: make(map[string]map[string]struct{})}
	for _, entry := range strings.Split(raw, ";") {
		user, perms, ok := strings.Cut(entry, "=")
		user = strings.TrimSpace(user)
		if !ok || user == "" {
			continue
		}
		for _, p := range strings.Split(perms, "|") {
			if p = strings.TrimSpace(p); p != "" {
				c.Grant(user, p)
			}
		}
	}
	return c
}

// Grant adds permission for userID.
func (c *StaticChecker) Grant(userID, permission string) {
	set, ok := c.grants[userID]
	if !ok {
		set = make(map[string]struct{})
		c.grants[userID] = set
	}
	set[permission] = struct{}{}
}

// HasPermission implements Checker.
func (c *StaticChecker) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, who := range []string{userID, Wildcard} {
		set := c.grants[who]
		if _, ok := set[permission]; ok {
			return true, nil
		}
		if _, ok := set[Wildcard]; ok {
			return true, nil
		}
	}
	return false, nil
}

var _ Checker = (*StaticChecker)(nil)
