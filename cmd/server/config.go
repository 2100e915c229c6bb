package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/willemschots/signin/internal/auth"
	"github.com/willemschots/signin/internal/krypto"
)

// httpConfig is the configuration for the HTTP server.
type httpConfig struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	viewDir         string
	secureCookie    bool
	sessionKey      krypto.Key
}

// dbConfig is the configuration for the database.
type dbConfig struct {
	file           string
	migrate        bool
	encryptionKeys []krypto.Key
	blindIndexKey  krypto.Key
}

// config is the configuration for the server command.
type config struct {
	http httpConfig
	db   dbConfig
	auth auth.DeciderConfig
}

// defaultConfig returns a config with sane default values.
func defaultConfig() config {
	return config{
		http: httpConfig{
			addr:            ":8888",
			readTimeout:     time.Second * 5,
			writeTimeout:    time.Second * 10,
			idleTimeout:     time.Second * 120,
			shutdownTimeout: time.Second * 15,
			secureCookie:    true,
		},
		db: dbConfig{
			file:    "signin.db",
			migrate: true,
		},
		auth: auth.DeciderConfig{
			LookupTimeout: time.Second * 5,
		},
	}
}

// requiredEnvKeys are the environment variables without a sane default.
var requiredEnvKeys = []string{
	"HTTP_SESSION_KEY",
	"DB_ENCRYPTION_KEYS",
	"BLIND_INDEX_KEY",
}

// envMap maps environment variable names to fields in the config struct.
var envMap = map[string]func(v string, c *config) error{
	"HTTP_ADDR": func(v string, c *config) error {
		c.http.addr = v
		return nil
	},
	"HTTP_READ_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.readTimeout, 0, math.MaxInt64)
	},
	"HTTP_WRITE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.writeTimeout, 0, math.MaxInt64)
	},
	"HTTP_IDLE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.idleTimeout, 0, math.MaxInt64)
	},
	"HTTP_SHUTDOWN_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.shutdownTimeout, 0, math.MaxInt64)
	},
	"HTTP_VIEW_DIR": func(v string, c *config) error {
		c.http.viewDir = v
		return nil
	},
	"HTTP_SECURE_COOKIE": func(v string, c *config) error {
		return confBool(v, &c.http.secureCookie)
	},
	"HTTP_SESSION_KEY": func(v string, c *config) error {
		return confKey(v, &c.http.sessionKey)
	},
	"DB_FILENAME": func(v string, c *config) error {
		if v == "" {
			return errors.New("empty filename")
		}
		c.db.file = v
		return nil
	},
	"DB_MIGRATE": func(v string, c *config) error {
		return confBool(v, &c.db.migrate)
	},
	"DB_ENCRYPTION_KEYS": func(v string, c *config) error {
		keys, err := krypto.ParseKeys(v)
		if err != nil {
			return err
		}
		c.db.encryptionKeys = keys
		return nil
	},
	"BLIND_INDEX_KEY": func(v string, c *config) error {
		return confKey(v, &c.db.blindIndexKey)
	},
	"AUTH_LOOKUP_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.auth.LookupTimeout, 0, math.MaxInt64)
	},
}

// configFromEnv returns a config with values from the environment. It falls
// back to default values for any missing environment variables.
//
// It does a best effort to validate provided values, so that mistakes are
// caught ASAP. However, there is no guarantee that the returned config
// is valid and will work.
func configFromEnv() (config, error) {
	c := defaultConfig()

	var errs []error
	for _, key := range requiredEnvKeys {
		if _, ok := os.LookupEnv(key); !ok {
			errs = append(errs, fmt.Errorf("missing required env variable %s", key))
		}
	}

	for key, mf := range envMap {
		if val, ok := os.LookupEnv(key); ok {
			if err := mf(val, &c); err != nil {
				errs = append(errs, fmt.Errorf("invalid env variable %s: %w", key, err))
			}
		}
	}

	return c, errors.Join(errs...)
}

// confDuration attempts to parse v into tgt and checks if the result is in
// the provided range (inclusive).
func confDuration(v string, tgt *time.Duration, min, max time.Duration) error {
	dur, err := time.ParseDuration(v)
	if err != nil {
		return err
	}

	if dur < min || dur > max {
		return fmt.Errorf("duration %s not in range [%s, %s] (inclusive)", dur, min, max)
	}

	*tgt = dur

	return nil
}

func confBool(v string, tgt *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}

	*tgt = b

	return nil
}

func confKey(v string, tgt *krypto.Key) error {
	k, err := krypto.ParseKey(v)
	if err != nil {
		return err
	}

	*tgt = k

	return nil
}
