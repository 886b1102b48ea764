// Package config loads authkit configuration.
//
// Load uses Viper to read a config.yml (searched in the working directory,
// ./config and the user config directory), then a .env file via godotenv,
// then environment variables. Every key declared on the target struct is
// bound to PREFIX_<KEY> with dots turned into underscores:
// AUTHKIT_SESSION_API_URL sets session.api_url.
//
//	var cfg config.Config
//	if err := config.Load(config.ServiceName, &cfg, config.Options()...); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
