package rescommon

// ResourceType enumerates the resource catalogs the index serves.
type ResourceType string

const (
	ResourceTypeLibrary  ResourceType = "LIBRARY"
	ResourceTypeBlock    ResourceType = "BLOCK"
	ResourceTypeFont     ResourceType = "FONT"
	ResourceTypeTemplate ResourceType = "TEMPLATE"
	ResourceTypeGeneric  ResourceType = "RESOURCE"
)

func (t ResourceType) IsValid() bool {
	switch t {
	case ResourceTypeLibrary, ResourceTypeBlock, ResourceTypeFont,
		ResourceTypeTemplate, ResourceTypeGeneric:
		return true
	}
	return false
}

// OwnerScope states who a record belongs to. OWNED/ORG/PUBLIC records are
// canonical; SHARED records are materialized grants for one collaborator.
type OwnerScope string

const (
	ScopeOwned  OwnerScope = "OWNED"
	ScopeOrg    OwnerScope = "ORG"
	ScopePublic OwnerScope = "PUBLIC"
	ScopeShared OwnerScope = "SHARED"
)

func (s OwnerScope) IsValid() bool {
	switch s {
	case ScopeOwned, ScopeOrg, ScopePublic, ScopeShared:
		return true
	}
	return false
}

// ObjectType distinguishes files from folders within a catalog.
type ObjectType string

const (
	ObjectTypeFile   ObjectType = "FILE"
	ObjectTypeFolder ObjectType = "FOLDER"
)
