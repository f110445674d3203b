package resources

import (
	"strings"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/rescommon"
)

// Key derivation for the two access paths over one item set.
//
// The partition key "RESOURCE#<type>#<objectId>" is the reverse-lookup axis:
// querying it alone returns the canonical record plus every SHARED grant for
// the object, regardless of owner. The sort key encodes ownership
// ("<scope>[#parent][#owner]"), so the role-swapped forward index answers
// "what is visible under this scope/folder" with a begins-with predicate on
// the partition key restricting the resource type.

const keySep = "#"

const primaryKeyTag = "RESOURCE"

// PrimaryKey derives the reverse-lookup key for an object.
func PrimaryKey(t rescommon.ResourceType, objectID string) string {
	return primaryKeyTag + keySep + string(t) + keySep + objectID
}

// PrimaryKeyPrefix is the begins-with predicate restricting a forward query
// to one resource type.
func PrimaryKeyPrefix(t rescommon.ResourceType) string {
	return primaryKeyTag + keySep + string(t) + keySep
}

// ForwardKey derives the ownership sort key. The PUBLIC scope ignores the
// owner id entirely, so all public resources of a type share one partition
// regardless of who created them.
func ForwardKey(scope rescommon.OwnerScope, parent, ownerID, sharedUserID string) string {
	if scope == rescommon.ScopeShared {
		return SharedKey(parent, sharedUserID)
	}
	if scope == rescommon.ScopePublic {
		ownerID = ""
	}
	label := string(scope)
	switch {
	case parent == "" && ownerID == "":
		return label
	case ownerID == "":
		return label + keySep + parent
	case parent == "":
		return label + keySep + ownerID
	default:
		return label + keySep + parent + keySep + ownerID
	}
}

// SharedKey derives the sort key of a materialized grant. Both parts are
// always present on SHARED records.
func SharedKey(parent, sharedUserID string) string {
	return string(rescommon.ScopeShared) + keySep + parent + keySep + sharedUserID
}

// BlockObjectID composes the two-level block-library object id. Listing the
// blocks of a library and fetching one block are then a prefix and an exact
// query on the same key axis.
func BlockObjectID(libraryID, blockID string) string {
	return libraryID + keySep + blockID
}

// BlockLibraryPrefix restricts a forward query to the blocks of one library.
func BlockLibraryPrefix(libraryID string) string {
	return PrimaryKeyPrefix(rescommon.ResourceTypeBlock) + libraryID + keySep
}

// keyHasScope reports whether a sort key belongs to the given owner scope.
func keyHasScope(sk string, scope rescommon.OwnerScope) bool {
	return sk == string(scope) || strings.HasPrefix(sk, string(scope)+keySep)
}

// keyHasGrantee reports whether a sort key's trailing segment is the given
// user or organization id.
func keyHasGrantee(sk, id string) bool {
	return id != "" && strings.HasSuffix(sk, keySep+id)
}
