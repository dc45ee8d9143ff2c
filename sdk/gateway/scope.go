package gateway

import (
	"strings"

	"github.com/xinsaaa/hailuo/sdk/credential"
)

// adminPathPrefix discriminates the admin namespace. Request paths are
// classified relative to the API base, before the base URL is prepended.
const adminPathPrefix = "/admin"

// ScopeForPath classifies an API path: the admin prefix selects the admin
// scope, everything else is user-scoped.
func ScopeForPath(path string) credential.Scope {
	if strings.HasPrefix(path, adminPathPrefix) {
		return credential.ScopeAdmin
	}
	return credential.ScopeUser
}
