// Package access decides whether a caller may act on an owned record.
package access

import "net/http"

type Policy int

const (
	// ReadOpen lets anyone read; writes need the owner or an elevated user.
	ReadOpen Policy = iota
	// Strict requires the owner or an elevated user for every method.
	Strict
)

// Caller is either Anonymous or an authenticated user.
type Caller struct {
	authenticated bool
	ID            int64
	Username      string
	IsStaff       bool
	IsSuperuser   bool
}

func Anonymous() Caller {
	return Caller{}
}

func User(id int64, username string, isStaff, isSuperuser bool) Caller {
	return Caller{authenticated: true, ID: id, Username: username, IsStaff: isStaff, IsSuperuser: isSuperuser}
}

func (c Caller) Authenticated() bool {
	return c.authenticated
}

func (c Caller) Elevated() bool {
	return c.authenticated && (c.IsStaff || c.IsSuperuser)
}

func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func Allow(policy Policy, caller Caller, method string, ownerID int64) bool {
	if policy == ReadOpen && IsSafeMethod(method) {
		return true
	}
	if !caller.authenticated {
		return false
	}
	return caller.ID == ownerID || caller.IsStaff || caller.IsSuperuser
}
