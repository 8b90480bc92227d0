package config

const (
	EnvPrefix = "RAFFLE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "RAFFLE_DB_DSN"
	EnvDBHost = "RAFFLE_DB_HOST"
	EnvDBUser = "RAFFLE_DB_USER"
	EnvDBName = "RAFFLE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
