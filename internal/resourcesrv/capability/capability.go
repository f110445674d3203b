// Package capability projects a grant role into the concrete set of
// capabilities exposed to API consumers. Role sets are built by monotonic
// union layering (viewer, then editor additions, then owner additions), so an
// upgraded role can never lose a capability the lower role had; the only
// non-nested members are the file/folder-conditional ones.
package capability

import (
	"encoding/json"
	"sort"
)

// Role is the access level recorded on a grant.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
	// RoleCustom carries no derived set; its capabilities are stored verbatim
	// on the grant.
	RoleCustom Role = "CUSTOM"
)

// ResourceKind tags whether capabilities are projected for a file or a
// folder. Provider adapters produce this value type directly rather than
// wrapping their objects.
type ResourceKind string

const (
	KindFile   ResourceKind = "FILE"
	KindFolder ResourceKind = "FOLDER"
)

// Capability is a named permission bit.
type Capability string

const (
	CanDownload          Capability = "canDownload"
	CanOpen              Capability = "canOpen"
	CanClone             Capability = "canClone"
	CanComment           Capability = "canComment"
	CanViewPermissions   Capability = "canViewPermissions"
	CanViewPublicLink    Capability = "canViewPublicLink"
	CanRename            Capability = "canRename"
	CanEdit              Capability = "canEdit"
	CanManageVersions    Capability = "canManageVersions"
	CanManagePublicLink  Capability = "canManagePublicLink"
	CanManagePermissions Capability = "canManagePermissions"
	CanCreateFolders     Capability = "canCreateFolders"
	CanCreateFiles       Capability = "canCreateFiles"
	CanMoveFrom          Capability = "canMoveFrom"
	CanMoveTo            Capability = "canMoveTo"
	CanChangeOwner       Capability = "canChangeOwner"
	CanDelete            Capability = "canDelete"
	CanMove              Capability = "canMove"
	CanManageTrash       Capability = "canManageTrash"
)

// Set is an unordered capability set.
type Set map[Capability]struct{}

func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func (s Set) add(caps ...Capability) {
	for _, c := range caps {
		s[c] = struct{}{}
	}
}

// ContainsAll reports whether every member of other is in s.
func (s Set) ContainsAll(other Set) bool {
	for c := range other {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// List returns the members in lexical order.
func (s Set) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON renders the set as a sorted string array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// For derives the capability set for a role on a resource kind. RoleCustom
// (and unknown roles) derive nothing; custom grants carry their capabilities
// verbatim, see Custom.
func For(role Role, kind ResourceKind) Set {
	s := NewSet()
	if role != RoleViewer && role != RoleEditor && role != RoleOwner {
		return s
	}

	// any role with access at all
	s.add(CanDownload)

	// viewer layer
	s.add(CanClone, CanViewPermissions)
	if kind == KindFile {
		s.add(CanOpen, CanComment, CanViewPublicLink)
	}
	if role == RoleViewer {
		return s
	}

	// editor layer
	s.add(CanRename)
	if kind == KindFile {
		s.add(CanEdit, CanManageVersions, CanManagePublicLink, CanManagePermissions)
	} else {
		s.add(CanCreateFolders, CanCreateFiles, CanMoveFrom, CanMoveTo)
	}
	if role == RoleEditor {
		return s
	}

	// owner layer
	s.add(CanChangeOwner, CanDelete, CanMove, CanManageTrash)
	if kind == KindFolder {
		s.add(CanManagePermissions)
	}
	return s
}

// Custom builds a set from a stored per-grant capability list.
func Custom(caps []string) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[Capability(c)] = struct{}{}
	}
	return s
}
