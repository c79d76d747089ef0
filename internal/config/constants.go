package config

// Default locations
const (
	// DefaultDatabaseURL is the default sqlite database used when DATABASE_URL is unset
	DefaultDatabaseURL = "./devops-offer.db"

	// DefaultTasksDatabasePath is where the task queue keeps its state when the
	// main database is not a local sqlite file
	DefaultTasksDatabasePath = "./devops-offer-tasks.db"
)
