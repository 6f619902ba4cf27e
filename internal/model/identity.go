package model

// Identity represents the authenticated principal as reported by the identity
// provider. It is read-only input to the session layer: the provider supplies
// it on every auth-state notification and it becomes nil on sign-out.
type Identity struct {
	UID         string
	Email       string
	DisplayName *string
	PhotoURL    *string

	// Token is a bearer token minted by the provider for this sign-in,
	// when the provider supports token issuance.
	Token string
}
