package domain

// Identity is the authenticated user behind one or more connections.
// The hub only holds references to identities; the account store owns them.
type Identity struct {
	ID          string
	DisplayName string
}

func NewIdentity(id, displayName string) Identity {
	return Identity{
		ID:          id,
		DisplayName: displayName,
	}
}

func (i Identity) IsValid() bool {
	return i.ID != "" && i.DisplayName != ""
}

func (i Identity) String() string {
	return i.DisplayName + " (" + i.ID + ")"
}
