package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "STAGEPASS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
