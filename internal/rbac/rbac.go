package rbac

import (
	"context"
	"net/http"
	"strings"
)

// PermissionFor maps an HTTP verb on resource to a permission name.
// Unknown verbs fall back to view.
func PermissionFor(resource, method string) string {
	resource = strings.ToLower(strings.TrimSpace(resource))
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodPost:
		return "create_" + resource
	case http.MethodPut, http.MethodPatch:
		return "edit_" + resource
	case http.MethodDelete:
		return "delete_" + resource
	default:
		return "view_" + resource
	}
}

// Checker answers whether a user holds a permission.
type Checker interface {
	HasPermission(ctx context.Context, userID, permission string) (bool, error)
}

// action is the verb part of a permission, used in denial messages.
func action(permission string) (verb, resource string) {
	verb, resource, _ = strings.Cut(permission, "_")
	return verb, resource
}
