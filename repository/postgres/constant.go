package postgres

const (
	PostgresPersistentName    string = "postgres"
	PG_PORT_DEFAULT           int    = 5432
	PG_DATABASE_DEFAULT       string = "dbroute"
	PG_SSLMODE_DEFAULT        string = "disable"
	PG_MAX_IDLE_CONNS_DEFAULT int    = 10
	PG_MAX_OPEN_CONNS_DEFAULT int    = 100
	PG_MAX_LIFETIME_DEFAULT   int    = 3600
	PG_MAX_IDLE_TIME_DEFAULT  int    = 10
)
