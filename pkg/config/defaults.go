package config

// Store backend names.
const (
	BackendJSON     = "json"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

const (
	defaultAPIBase        = "https://api-v2.soundcloud.com"
	defaultPageSize       = 200
	defaultTimeoutSeconds = 30
	defaultStorePath      = "data/episodes.json"
	defaultSQLitePath     = "data/episodes.db"
	defaultMongoDatabase  = "podcast_sync"
	defaultCollection     = "episodes"
)

var defaultScriptFragments = []string{"sndcdn.com/assets/", "/assets/", "app-", "vendor-"}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Provider: Provider{
			APIBase:         defaultAPIBase,
			ScriptFragments: append([]string(nil), defaultScriptFragments...),
			PageSize:        defaultPageSize,
			TimeoutSeconds:  defaultTimeoutSeconds,
		},
		Store: Store{
			Backend:         BackendJSON,
			Path:            defaultStorePath,
			MongoDatabase:   defaultMongoDatabase,
			MongoCollection: defaultCollection,
			SQLitePath:      defaultSQLitePath,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
