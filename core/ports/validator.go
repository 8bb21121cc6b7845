package ports

// ClientValidator decides whether a client registration payload is
// acceptable. Deployments can swap the default schema check for their own
// policy through the module registry.
type ClientValidator interface {
	Valid(client map[string]any) bool
}
