package policy

// Default returns the route policy table the server boots with. Public
// content reads stay anonymous; everything unmatched falls through to
// the authenticated `/**` rule.
func Default() *Table {
	t, err := New([]Rule{
		{Pattern: "/api/auth/login", Requirement: Anonymous},
		{Pattern: "/api/auth/register", Requirement: Anonymous},

		{Pattern: "/healthz", Requirement: Anonymous},
		{Pattern: "/readyz", Requirement: Anonymous},
		{Pattern: "/metrics", Requirement: Anonymous},
		{Pattern: "/v1/info", Requirement: Anonymous},

		{Pattern: "/api/articles/**", Requirement: Anonymous},
		{Pattern: "/api/categories/**", Requirement: Anonymous},
		{Pattern: "/api/tags/**", Requirement: Anonymous},
		{Pattern: "/api/comments", Requirement: Anonymous},
		{Pattern: "/api/files/download/*", Requirement: Anonymous},
		{Pattern: "/api/files/view/*", Requirement: Anonymous},

		{Pattern: "/**", Requirement: Authenticated},
	})
	if err != nil {
		// The default rules are compile-time constants; a bad pattern
		// is a programming error.
		panic(err)
	}
	return t
}
