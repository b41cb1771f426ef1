package config

const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./kikoeru.db"

	// DefaultPageSize is the number of works per listing page
	DefaultPageSize = 12

	// DefaultUser owns every request that carries no identity
	DefaultUser = "admin"

	// DefaultIdentityHeader carries the authenticated user name from the proxy
	DefaultIdentityHeader = "X-Kikoeru-User"
)
