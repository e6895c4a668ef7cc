package bazaar

import (
	"log/slog"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/nasermirzaei89/bazaar/db/sqlite3"
	"github.com/nasermirzaei89/bazaar/server"
	"github.com/nasermirzaei89/env"
)

const (
	defaultSessionName       = "bazaar-session"
	defaultNATSSubjectPrefix = "bazaar"
	sessionKeyLength         = 32

	LogFormatText = "text"
	LogFormatJSON = "json"
	LogFormatAuto = "auto"
)

type Config struct {
	DBDSN             string
	Server            server.Server
	SessionName       string
	SessionKey        []byte
	NATSURL           string
	NATSSubjectPrefix string
	LogLevel          slog.Level
	LogFormat         string
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() Config {
	return Config{
		DBDSN:             env.GetString("DB_DSN", sqlite3.DefaultDSN),
		Server:            newServer(),
		SessionName:       env.GetString("SESSION_NAME", defaultSessionName),
		SessionKey:        sessionKey(),
		NATSURL:           env.GetString("NATS_URL", ""),
		NATSSubjectPrefix: env.GetString("NATS_SUBJECT_PREFIX", defaultNATSSubjectPrefix),
		LogLevel:          ParseLogLevel(env.GetString("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(env.GetString("LOG_FORMAT", LogFormatAuto)),
	}
}

func newServer() server.Server {
	return server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}
}

// sessionKey returns SESSION_KEY, or a random key when it is unset. Sessions signed by the
// identity service cannot be verified with a random key.
func sessionKey() []byte {
	key := env.GetString("SESSION_KEY", "")
	if key != "" {
		return []byte(key)
	}

	slog.Warn("SESSION_KEY is not set, using an ephemeral key")

	return securecookie.GenerateRandomKey(sessionKeyLength)
}

func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", level)

		return slog.LevelInfo
	}
}
