package config

// Default paths for data files
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./libraryhub.db"

	// DefaultFixturePath is the catalog loaded by the fixture backend and the seed command
	DefaultFixturePath = "./fixtures/catalog.yaml"
)
