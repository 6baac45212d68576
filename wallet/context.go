package wallet

// Context identifies the caller of a provider method.  The internal sentinel
// marks the trusted UI; it is distinguishable from any string origin because
// no web origin can set the flag.
type Context struct {
	// Origin is the web origin of the caller, e.g. "https://example.com".
	Origin string

	// Internal is true only for the trusted UI dispatch path.
	Internal bool
}

// InternalContext returns the privileged internal-origin call context.
func InternalContext() Context {
	return Context{Internal: true}
}

// OriginContext returns an untrusted web-origin call context.
func OriginContext(origin string) Context {
	return Context{Origin: origin}
}
