package logger

import (
	"crypto/sha256"
	"encoding/hex"
)

// Field keys shared across packages so log streams stay queryable.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldUserID     = "user_id"
	FieldTenantID   = "tenant_id"
	FieldProvider   = "provider"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldBackend    = "backend"
	FieldGeneration = "generation"
	FieldPath       = "path"
	// FieldToken carries a Fingerprint, never the token itself.
	FieldToken = "token_fp"
)

// Fields builds a field map from alternating keys and values. Pairs with a
// non-string key are dropped.
//
//	log.Info("token stored", logger.Fields(logger.FieldBackend, "file"))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

func ErrorFields(op string, err error) map[string]any {
	return map[string]any{FieldOperation: op, FieldError: err.Error()}
}

// Fingerprint identifies tok in logs without revealing it: the first 12 hex
// digits of its SHA-256. Empty input yields "".
func Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:6])
}
