package config

const (
	EnvPrefix = "OSKAZ"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "OSKAZ_APP_ENV"
	EnvPort   = "OSKAZ_APP_PORT"

	EnvDBDSN  = "OSKAZ_DB_DSN"
	EnvDBHost = "OSKAZ_DB_HOST"
	EnvDBUser = "OSKAZ_DB_USER"
	EnvDBName = "OSKAZ_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
