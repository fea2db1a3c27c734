package character

// IsChildOf reports whether c is a child of parent.
func (c *Character) IsChildOf(parent *Character) bool {
	return parent != nil && (c.Father == parent.ID || c.Mother == parent.ID)
}

// IsSonOf reports whether c is a male child of parent.
func (c *Character) IsSonOf(parent *Character) bool {
	return c.Sex == SexMale && c.IsChildOf(parent)
}

// IsBrotherOf reports whether c is a male sibling (same father) of other.
func (c *Character) IsBrotherOf(other *Character) bool {
	return other != nil && c.ID != other.ID && c.Sex == SexMale &&
		c.Father != "" && c.Father == other.Father
}

// RelationTo classifies c relative to the family head for allowances.
func (c *Character) RelationTo(head *Character) Relation {
	switch {
	case c.IsHeir():
		return RelationHeir
	case head != nil && c.Spouse == head.ID:
		return RelationSpouse
	case c.IsChildOf(head) && c.Sex == SexMale:
		return RelationSon
	case c.IsChildOf(head):
		return RelationDaughter
	default:
		return RelationOther
	}
}

// OlderThan reports whether c was born strictly before other.
func (c *Character) OlderThan(other *Character) bool {
	return c.Birth.Before(other.Birth)
}
