package entities

// RelationKind defines the kind of relationship one person has to others.
// The key reads from the entity's side: Relationships[RelationParent] lists
// the people this entity is a parent of.
type RelationKind string

const (
	RelationSpouse      RelationKind = "spouse"
	RelationParent      RelationKind = "parent"
	RelationChild       RelationKind = "child"
	RelationSibling     RelationKind = "sibling"
	RelationFriend      RelationKind = "friend"
	RelationColleague   RelationKind = "colleague"
	RelationGrandparent RelationKind = "grandparent"
	RelationGrandchild  RelationKind = "grandchild"
)

// RelationKinds lists all valid relationship kinds.
var RelationKinds = []RelationKind{
	RelationSpouse,
	RelationParent,
	RelationChild,
	RelationSibling,
	RelationFriend,
	RelationColleague,
	RelationGrandparent,
	RelationGrandchild,
}

// ValidRelationKind reports whether kind is a known relationship kind.
func ValidRelationKind(kind RelationKind) bool {
	for _, k := range RelationKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// AddRelationship records a relationship reference (entity name or id),
// deduplicating case-insensitively within the kind.
func (p *PersonEntity) AddRelationship(kind RelationKind, ref string) bool {
	if p.Relationships == nil {
		p.Relationships = make(map[RelationKind][]string)
	}
	normalized := NormalizeName(ref)
	if normalized == "" {
		return false
	}
	for _, existing := range p.Relationships[kind] {
		if NormalizeName(existing) == normalized {
			return false
		}
	}
	p.Relationships[kind] = append(p.Relationships[kind], ref)
	return true
}
