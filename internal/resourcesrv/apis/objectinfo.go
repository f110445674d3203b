package apis

import (
	"time"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/capability"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/resources"
)

// ObjectInfo is the API projection of one record. Storage-provider adapters
// elsewhere produce the same shape from foreign ACL data; the capability
// vocabulary is the shared contract.
type ObjectInfo struct {
	ID           string                  `json:"id"`
	ResourceType rescommon.ResourceType  `json:"resourceType"`
	ObjectType   rescommon.ObjectType    `json:"objectType"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description,omitempty"`
	Owner        string                  `json:"owner,omitempty"`
	OwnerID      string                  `json:"ownerId,omitempty"`
	OwnerType    rescommon.OwnerScope    `json:"ownerType"`
	Parent       string                  `json:"parent"`
	Thumbnail    string                  `json:"thumbnail,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    *time.Time              `json:"updatedAt,omitempty"`
	Deleted      bool                    `json:"deleted,omitempty"`
	Capabilities []capability.Capability `json:"capabilities"`
	Shares       []ShareInfo             `json:"shares,omitempty"`
	Attributes   map[string]any          `json:"attributes,omitempty"`
}

// ShareInfo describes one grant on an object.
type ShareInfo struct {
	UserID       string          `json:"userId"`
	Role         capability.Role `json:"role"`
	Capabilities []string        `json:"capabilities,omitempty"`
	SharedAt     time.Time       `json:"sharedAt"`
}

// roleFor derives the viewer's role on a record. A grant with a stored
// capability override is CUSTOM; a plain grant is an editor-level share. On
// canonical records the owner is OWNER, organization members are editors of
// organization resources, and everything else (public fallback included) is
// a viewer.
func roleFor(r *resources.Resource, viewerUserID, organizationID string) capability.Role {
	if !r.IsCanonical() {
		if len(r.Capabilities) > 0 {
			return capability.RoleCustom
		}
		return capability.RoleEditor
	}
	switch r.OwnerType {
	case rescommon.ScopeOwned:
		if r.OwnerID == viewerUserID {
			return capability.RoleOwner
		}
		return capability.RoleViewer
	case rescommon.ScopeOrg:
		if organizationID != "" && r.OwnerID == organizationID {
			return capability.RoleEditor
		}
		return capability.RoleViewer
	default:
		return capability.RoleViewer
	}
}

func kindOf(r *resources.Resource) capability.ResourceKind {
	if r.ObjectType == rescommon.ObjectTypeFolder {
		return capability.KindFolder
	}
	return capability.KindFile
}

func capabilitiesFor(r *resources.Resource, role capability.Role) []capability.Capability {
	if role == capability.RoleCustom {
		return capability.Custom(r.Capabilities).List()
	}
	return capability.For(role, kindOf(r)).List()
}

// toObjectInfo projects a record for a viewer. Grants of the object are
// attached separately, see withShares.
func toObjectInfo(r *resources.Resource, viewerUserID, organizationID string) *ObjectInfo {
	role := roleFor(r, viewerUserID, organizationID)
	info := &ObjectInfo{
		ID:           r.ObjectID,
		ResourceType: r.Type,
		ObjectType:   r.ObjectType,
		Name:         r.Name,
		Description:  r.Description,
		Owner:        r.OwnerName,
		OwnerID:      r.OwnerID,
		OwnerType:    r.OwnerType,
		Parent:       r.Parent,
		Thumbnail:    r.Thumbnail,
		CreatedAt:    r.CreatedAt,
		Deleted:      r.Deleted,
		Capabilities: capabilitiesFor(r, role),
		Attributes:   r.Attributes,
	}
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		info.UpdatedAt = &t
	}
	return info
}

func withShares(info *ObjectInfo, grants []*resources.Resource) *ObjectInfo {
	for _, g := range grants {
		role := capability.RoleEditor
		if len(g.Capabilities) > 0 {
			role = capability.RoleCustom
		}
		info.Shares = append(info.Shares, ShareInfo{
			UserID:       g.SharedUserID,
			Role:         role,
			Capabilities: g.Capabilities,
			SharedAt:     g.CreatedAt,
		})
	}
	return info
}
