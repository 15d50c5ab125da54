package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

var getenv = os.Getenv

const redacted = "[REDACTED]"

type redactor struct {
	enabled bool
	salt    string
}

func redactorFromEnv() *redactor {
	r := &redactor{enabled: true}
	switch strings.TrimSpace(strings.ToLower(getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		r.enabled = false
	}
	r.salt = strings.TrimSpace(getenv("LOG_HASH_SALT"))
	return r
}

func (r *redactor) kvs(kv []interface{}) []interface{} {
	if r == nil || !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		name := toString(kv[i])
		out = append(out, name, r.value(normalizeKey(name), kv[i+1]))
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	if key != "" {
		if secretKey(key) {
			return redacted
		}
		if r.salt != "" && hashedKey(key) {
			return r.hash(val)
		}
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(normalizeKey(k), inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (r *redactor) hash(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	h := sha256.New()
	_, _ = h.Write([]byte(r.salt))
	_, _ = h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func normalizeKey(k string) string {
	return strings.TrimSpace(strings.ToLower(k))
}

func secretKey(key string) bool {
	for _, frag := range []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey", "email"} {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

// user and actor ids are hashed only when a salt is configured so local
// debugging still sees raw ids.
func hashedKey(key string) bool {
	return strings.Contains(key, "user_id") || strings.Contains(key, "actor_id") || strings.Contains(key, "owner_id")
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
