package config

const (
	EnvPrefix = "DUNGDATA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DUNGDATA_DB_DSN"
	EnvDBHost = "DUNGDATA_DB_HOST"
	EnvDBUser = "DUNGDATA_DB_USER"
	EnvDBName = "DUNGDATA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
