package auth

import (
	"errors"
	"slices"
	"strings"
)

// Capabilities that may appear in an ACL
const (
	CapRead         = "read"
	CapUpdate       = "update"
	CapParticipants = "participants"
	CapResumes      = "resumes"
	CapAdmin        = "admin"
)

// KnownCapabilities lists every capability in display order
var KnownCapabilities = []string{CapRead, CapUpdate, CapParticipants, CapResumes, CapAdmin}

const (
	// DefaultSponsorACL is used when a sponsor is created without one
	DefaultSponsorACL = CapRead

	// DefaultAdminACL is used when an admin is created without one
	DefaultAdminACL = CapRead + "," + CapUpdate
)

// ErrUnauthorized is returned when an ACL does not grant a capability
var ErrUnauthorized = errors.New("auth: not authorized to perform this action")

// ParseACL splits a comma separated ACL, dropping blanks and duplicates
func ParseACL(acl string) []string {
	var caps []string
	for _, c := range strings.Split(acl, ",") {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(caps, c) {
			continue
		}
		caps = append(caps, c)
	}
	return caps
}

// JoinACL renders capabilities in their canonical ACL form
func JoinACL(caps []string) string {
	return strings.Join(ParseACL(strings.Join(caps, ",")), ",")
}

// HasAccess reports whether acl grants capability
func HasAccess(acl, capability string) bool {
	return slices.Contains(ParseACL(acl), capability)
}

// Claim returns ErrUnauthorized unless acl grants capability
func Claim(acl, capability string) error {
	if !HasAccess(acl, capability) {
		return ErrUnauthorized
	}
	return nil
}

// ACLFromFlags converts a set of capability checkboxes into an ACL string.
// Known capabilities keep their display order, unknown ones follow sorted.
func ACLFromFlags(flags map[string]bool) string {
	var caps []string
	for _, c := range KnownCapabilities {
		if flags[c] {
			caps = append(caps, c)
		}
	}

	var extra []string
	for c, on := range flags {
		if on && !slices.Contains(KnownCapabilities, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)

	return JoinACL(append(caps, extra...))
}
