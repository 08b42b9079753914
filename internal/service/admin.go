package service

import "strings"

// DefaultAdminEmail is the fallback allow-list entry when none is configured.
const DefaultAdminEmail = "admin@gochop.io"

// AdminResolver maps a verified email to a trust level by allow-list
// membership. It holds no mutable state and never touches the store.
type AdminResolver struct {
	emails map[string]struct{}
}

// NewAdminResolver parses a comma-separated allow-list. An empty list falls
// back to the built-in default address.
func NewAdminResolver(allowList string) *AdminResolver {
	emails := make(map[string]struct{})
	for _, e := range strings.Split(allowList, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			emails[e] = struct{}{}
		}
	}
	if len(emails) == 0 {
		emails[DefaultAdminEmail] = struct{}{}
	}
	return &AdminResolver{emails: emails}
}

// IsAdmin reports allow-list membership; the input's case does not matter.
func (r *AdminResolver) IsAdmin(email string) bool {
	_, ok := r.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
