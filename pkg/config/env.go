package config

// Environment names
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports whether env enforces production requirements:
// real API keys, a non-default token secret and an explicit database host.
func IsProductionLike(env string) bool {
	return env == EnvStaging || env == EnvProduction
}
