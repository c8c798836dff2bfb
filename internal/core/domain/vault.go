package domain

// VaultRef is a weak reference to a vault held by a session.
type VaultRef struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// Vault is a multisig-controlled address resolved through the vault directory.
// It is read-only from the session core's perspective.
type Vault struct {
	ID       string `json:"id"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Ref returns the reference stored on sessions.
func (v *Vault) Ref() VaultRef {
	return VaultRef{ID: v.ID, Address: v.Address}
}

// User is the owner a session and its recover codes are attributed to.
type User struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}
