// Package logger provides structured logging for authkit using zerolog.
//
// Components take a *Logger and tag it with WithComponent so that session,
// storage and OAuth events can be told apart in a single stream:
//
//	log := logger.NewDefault("authctl").WithComponent("session")
//	log.Info("login succeeded", logger.Fields(logger.FieldUserID, user.ID))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
