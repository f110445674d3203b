package resources

import (
	"time"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

// Item attribute names. The record layout is flat; anything not listed here
// is a type-specific attribute and round-trips through Resource.Attributes.
const (
	attrObjectID     = "objectId"
	attrResourceType = "resourceType"
	attrObjectType   = "objectType"
	attrOwnerType    = "ownerType"
	attrOwnerID      = "ownerId"
	attrOwnerName    = "ownerName"
	attrParent       = "parent"
	attrName         = "name"
	attrDescription  = "description"
	attrThumbnail    = "thumbnail"
	attrCreatedAt    = "createdAt"
	attrUpdatedAt    = "updatedAt"
	attrDeleted      = "deleted"
	attrUserID       = "userId"
	attrSharedScope  = "sharedScope"
	attrCapabilities = "capabilities"
	attrMovingFrom   = "movingFrom"
)

var knownAttrs = map[string]struct{}{
	kvstore.AttrPK: {}, kvstore.AttrSK: {},
	attrObjectID: {}, attrResourceType: {}, attrObjectType: {},
	attrOwnerType: {}, attrOwnerID: {}, attrOwnerName: {},
	attrParent: {}, attrName: {}, attrDescription: {}, attrThumbnail: {},
	attrCreatedAt: {}, attrUpdatedAt: {}, attrDeleted: {},
	attrUserID: {}, attrSharedScope: {}, attrCapabilities: {}, attrMovingFrom: {},
}

// Resource is one record of the index: either the canonical copy of an
// object or a materialized SHARED grant. Grants never hold authoritative
// attributes; their content is a point-in-time clone of the canonical record.
type Resource struct {
	ObjectID    string
	Type        rescommon.ResourceType
	ObjectType  rescommon.ObjectType
	OwnerType   rescommon.OwnerScope
	OwnerID     string
	OwnerName   string
	Parent      string
	Name        string
	Description string
	Thumbnail   string
	CreatedAt   time.Time
	UpdatedAt   time.Time // zero when never updated
	Deleted     bool

	// SHARED records only
	SharedUserID string
	SharedScope  rescommon.OwnerScope

	// CUSTOM grant capability override, stored verbatim
	Capabilities []string

	// type-specific attributes (font faces, free-form metadata)
	Attributes map[string]any

	// transient marker present while a move is in flight; names the sort key
	// the record is moving away from
	MovingFrom string
}

// Keys derives the record's store keys.
func (r *Resource) Keys() (pk, sk string) {
	return PrimaryKey(r.Type, r.ObjectID),
		ForwardKey(r.OwnerType, r.Parent, r.OwnerID, r.SharedUserID)
}

// IsCanonical reports whether the record is the authoritative copy.
func (r *Resource) IsCanonical() bool {
	return r.OwnerType != rescommon.ScopeShared
}

// Item flattens the resource into a store item.
func (r *Resource) Item() kvstore.Item {
	pk, sk := r.Keys()
	it := kvstore.Item{
		kvstore.AttrPK:   pk,
		kvstore.AttrSK:   sk,
		attrObjectID:     r.ObjectID,
		attrResourceType: string(r.Type),
		attrObjectType:   string(r.ObjectType),
		attrOwnerType:    string(r.OwnerType),
		attrParent:       r.Parent,
		attrName:         r.Name,
		attrCreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.OwnerID != "" {
		it[attrOwnerID] = r.OwnerID
	}
	if r.OwnerName != "" {
		it[attrOwnerName] = r.OwnerName
	}
	if r.Description != "" {
		it[attrDescription] = r.Description
	}
	if r.Thumbnail != "" {
		it[attrThumbnail] = r.Thumbnail
	}
	if !r.UpdatedAt.IsZero() {
		it[attrUpdatedAt] = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.Deleted {
		it[attrDeleted] = true
	}
	if r.SharedUserID != "" {
		it[attrUserID] = r.SharedUserID
	}
	if r.SharedScope != "" {
		it[attrSharedScope] = string(r.SharedScope)
	}
	if len(r.Capabilities) > 0 {
		caps := make([]any, len(r.Capabilities))
		for i, c := range r.Capabilities {
			caps[i] = c
		}
		it[attrCapabilities] = caps
	}
	if r.MovingFrom != "" {
		it[attrMovingFrom] = r.MovingFrom
	}
	for k, v := range r.Attributes {
		if _, known := knownAttrs[k]; !known {
			it[k] = v
		}
	}
	return it
}

// resourceFromItem decodes a store item. A record missing its identity
// attributes, or carrying an unparseable timestamp, is malformed — reported
// as such, never as not-found.
func resourceFromItem(it kvstore.Item) (*Resource, error) {
	r := &Resource{
		ObjectID:     it.String(attrObjectID),
		Type:         rescommon.ResourceType(it.String(attrResourceType)),
		ObjectType:   rescommon.ObjectType(it.String(attrObjectType)),
		OwnerType:    rescommon.OwnerScope(it.String(attrOwnerType)),
		OwnerID:      it.String(attrOwnerID),
		OwnerName:    it.String(attrOwnerName),
		Parent:       it.String(attrParent),
		Name:         it.String(attrName),
		Description:  it.String(attrDescription),
		Thumbnail:    it.String(attrThumbnail),
		Deleted:      it.Bool(attrDeleted),
		SharedUserID: it.String(attrUserID),
		SharedScope:  rescommon.OwnerScope(it.String(attrSharedScope)),
		MovingFrom:   it.String(attrMovingFrom),
	}
	if r.ObjectID == "" || !r.Type.IsValid() || !r.OwnerType.IsValid() {
		return nil, ErrMalformedItem
	}
	var err error
	if r.CreatedAt, err = parseTime(it.String(attrCreatedAt)); err != nil {
		return nil, ErrMalformedItem.Err(err)
	}
	if ts := it.String(attrUpdatedAt); ts != "" {
		if r.UpdatedAt, err = parseTime(ts); err != nil {
			return nil, ErrMalformedItem.Err(err)
		}
	}
	if caps, ok := it[attrCapabilities].([]any); ok {
		for _, c := range caps {
			if s, ok := c.(string); ok {
				r.Capabilities = append(r.Capabilities, s)
			}
		}
	}
	for k, v := range it {
		if _, known := knownAttrs[k]; known {
			continue
		}
		if r.Attributes == nil {
			r.Attributes = make(map[string]any)
		}
		r.Attributes[k] = v
	}
	return r, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrMalformedItem.Msg("missing timestamp")
	}
	return time.Parse(time.RFC3339Nano, s)
}
