package db

import "database/sql"

// DBProvider is implemented by clients that hand out a sql.DB handle.
// PostgresClient, SupabaseClient, and SQLiteClient all back an SQLStore through it.
type DBProvider interface {
	DB() *sql.DB
}
