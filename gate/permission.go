package gate

import "strings"

// Permission is "resource:action", e.g. "invoice:create".
type Permission string

const (
	Wildcard = "*"
	// PermissionAll grants every action on every resource.
	PermissionAll Permission = "*:*"
)

func NewPermission(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

// Parse splits a permission. A malformed permission yields empty parts.
func (p Permission) Parse() (resource string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether p grants requested. Either part of p may be the
// wildcard: "invoice:*" grants every invoice action, "*:view" grants viewing
// every resource.
func (p Permission) Matches(requested Permission) bool {
	if p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	return (res == Wildcard || res == reqRes) && (string(act) == Wildcard || act == reqAct)
}
