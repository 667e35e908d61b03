package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Storage backends are optional:
// when a URL is empty the corresponding in-memory implementation is used,
// which keeps local development free of infrastructure.
type Server struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	UploadsDir    string
	JWTSigningKey string
	AdminLogins   []AdminLogin

	SessionTTL time.Duration
}

// AdminLogin is one configured administrator credential pair. Passwords are
// bcrypt hashes except in development, where plaintext is tolerated by the
// admin identity checker.
type AdminLogin struct {
	Email    string
	Password string
}

// RegistryCacheTTL bounds how long moderation listings may be reused by
// clients before a re-fetch; the server itself never caches them.
var RegistryCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PORTAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	uploads := os.Getenv("PORTAL_UPLOADS_DIR")
	if uploads == "" {
		uploads = "uploads"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("AUDIT_TOPIC")
	if topic == "" {
		topic = "portal.audit"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Server{
		Addr:          addr,
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    topic,
		UploadsDir:    uploads,
		JWTSigningKey: jwtSigningKey,
		AdminLogins:   parseAdminLogins(os.Getenv("ADMIN_LOGINS")),
		SessionTTL:    24 * time.Hour,
	}
}

// parseAdminLogins reads "email:password[,email:password]" pairs.
func parseAdminLogins(raw string) []AdminLogin {
	if raw == "" {
		return nil
	}
	var logins []AdminLogin
	for _, pair := range strings.Split(raw, ",") {
		email, password, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || email == "" || password == "" {
			continue
		}
		logins = append(logins, AdminLogin{Email: strings.ToLower(email), Password: password})
	}
	return logins
}
