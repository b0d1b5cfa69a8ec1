package env

const (
	// Prefix is the prefix of every fxcompare environment variable
	Prefix = "FXCOMPARE_"

	// DBURLSuffix is the Postgres connection string variable suffix
	DBURLSuffix = "DB_URL"
)
