package main

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/willemschots/signin/internal/krypto"
)

const (
	testSessionKey    = "568554094ec040ab8a6b3e6d7cc138b0dc855f39ba1aeb2ffc903f7260b3a452"
	testEncryptionKey = "2b671594b775f371eab4050b4d58326682df6b1a6cc2e886717b1a26b4d6c45d"
	testBlindIndexKey = "b61115eeb1bdf0847f1d7ea978c7da71e3b31361f7450bc8aa12566a16b7b03f"
	otherKey          = "cf55b868d8c7a640265365910093113edce9b6c9226f3bd7c87987d23062d421"
)

func requiredEnv() map[string]string {
	return map[string]string{
		"HTTP_SESSION_KEY":   testSessionKey,
		"DB_ENCRYPTION_KEYS": testEncryptionKey,
		"BLIND_INDEX_KEY":    testBlindIndexKey,
	}
}

// setEnv sets the required env variables, overridden or extended by env.
// An empty key in skip is left unset.
func setEnv(t *testing.T, env map[string]string, skip string) {
	t.Helper()

	all := requiredEnv()
	for key, val := range env {
		all[key] = val
	}

	for key, val := range all {
		if key != skip {
			envForTest(t, key, val)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	base := func() config {
		c := defaultConfig()
		c.http.sessionKey = must(krypto.ParseKey(testSessionKey))
		c.db.encryptionKeys = []krypto.Key{must(krypto.ParseKey(testEncryptionKey))}
		c.db.blindIndexKey = must(krypto.ParseKey(testBlindIndexKey))
		return c
	}

	okTests := map[string]struct {
		env  map[string]string
		want func(*config)
	}{
		"ok, defaults": {
			want: func(*config) {},
		},
		"ok, http settings": {
			env: map[string]string{
				"HTTP_ADDR":             "localhost:8080",
				"HTTP_READ_TIMEOUT":     "101ms",
				"HTTP_WRITE_TIMEOUT":    "202ms",
				"HTTP_IDLE_TIMEOUT":     "303ms",
				"HTTP_SHUTDOWN_TIMEOUT": "404ms",
				"HTTP_VIEW_DIR":         "./templates",
				"HTTP_SECURE_COOKIE":    "false",
			},
			want: func(c *config) {
				c.http.addr = "localhost:8080"
				c.http.readTimeout = 101 * time.Millisecond
				c.http.writeTimeout = 202 * time.Millisecond
				c.http.idleTimeout = 303 * time.Millisecond
				c.http.shutdownTimeout = 404 * time.Millisecond
				c.http.viewDir = "./templates"
				c.http.secureCookie = false
			},
		},
		"ok, zero timeouts are allowed": {
			env: map[string]string{"HTTP_READ_TIMEOUT": "0s", "AUTH_LOOKUP_TIMEOUT": "0s"},
			want: func(c *config) {
				c.http.readTimeout = 0
				c.auth.LookupTimeout = 0
			},
		},
		"ok, other session key": {
			env:  map[string]string{"HTTP_SESSION_KEY": otherKey},
			want: func(c *config) { c.http.sessionKey = must(krypto.ParseKey(otherKey)) },
		},
		"ok, database settings": {
			env: map[string]string{"DB_FILENAME": "test.db", "DB_MIGRATE": "false"},
			want: func(c *config) {
				c.db.file = "test.db"
				c.db.migrate = false
			},
		},
		"ok, rotated encryption keys": {
			env: map[string]string{"DB_ENCRYPTION_KEYS": testEncryptionKey + "," + otherKey},
			want: func(c *config) {
				c.db.encryptionKeys = append(c.db.encryptionKeys, must(krypto.ParseKey(otherKey)))
			},
		},
		"ok, other blind index key": {
			env:  map[string]string{"BLIND_INDEX_KEY": otherKey},
			want: func(c *config) { c.db.blindIndexKey = must(krypto.ParseKey(otherKey)) },
		},
		"ok, lookup timeout": {
			env:  map[string]string{"AUTH_LOOKUP_TIMEOUT": "42s"},
			want: func(c *config) { c.auth.LookupTimeout = 42 * time.Second },
		},
	}

	for name, tc := range okTests {
		t.Run(name, func(t *testing.T) {
			setEnv(t, tc.env, "")

			want := base()
			tc.want(&want)

			got, err := configFromEnv()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, want) {
				t.Errorf("got\n%+v\nwant\n%+v", got, want)
			}
		})
	}

	failTests := map[string]struct {
		env  map[string]string
		skip string
		// mention are the env variables the error should name.
		mention []string
	}{
		"fail, negative http timeouts": {
			env: map[string]string{
				"HTTP_READ_TIMEOUT":     "-1ms",
				"HTTP_WRITE_TIMEOUT":    "-1ms",
				"HTTP_IDLE_TIMEOUT":     "-1ms",
				"HTTP_SHUTDOWN_TIMEOUT": "-1ms",
			},
			mention: []string{"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT"},
		},
		"fail, unparsable duration": {
			env:     map[string]string{"AUTH_LOOKUP_TIMEOUT": "soon"},
			mention: []string{"AUTH_LOOKUP_TIMEOUT"},
		},
		"fail, negative lookup timeout": {
			env:     map[string]string{"AUTH_LOOKUP_TIMEOUT": "-1ms"},
			mention: []string{"AUTH_LOOKUP_TIMEOUT"},
		},
		"fail, invalid booleans": {
			env:     map[string]string{"HTTP_SECURE_COOKIE": "abc", "DB_MIGRATE": "no!"},
			mention: []string{"HTTP_SECURE_COOKIE", "DB_MIGRATE"},
		},
		"fail, empty database filename": {
			env:     map[string]string{"DB_FILENAME": ""},
			mention: []string{"DB_FILENAME"},
		},
		"fail, invalid keys": {
			env: map[string]string{
				"HTTP_SESSION_KEY":   "abc",
				"DB_ENCRYPTION_KEYS": "abc",
				"BLIND_INDEX_KEY":    testBlindIndexKey[2:],
			},
			mention: []string{"HTTP_SESSION_KEY", "DB_ENCRYPTION_KEYS", "BLIND_INDEX_KEY"},
		},
		"fail, empty encryption keys": {
			env:     map[string]string{"DB_ENCRYPTION_KEYS": ""},
			mention: []string{"DB_ENCRYPTION_KEYS"},
		},
		"fail, missing session key": {
			skip:    "HTTP_SESSION_KEY",
			mention: []string{"HTTP_SESSION_KEY"},
		},
		"fail, missing encryption keys": {
			skip:    "DB_ENCRYPTION_KEYS",
			mention: []string{"DB_ENCRYPTION_KEYS"},
		},
		"fail, missing blind index key": {
			skip:    "BLIND_INDEX_KEY",
			mention: []string{"BLIND_INDEX_KEY"},
		},
	}

	for name, tc := range failTests {
		t.Run(name, func(t *testing.T) {
			setEnv(t, tc.env, tc.skip)

			_, err := configFromEnv()
			if err == nil {
				t.Fatal("expected error, got <nil>")
			}

			// The error is logged as is, so it should point at every culprit.
			for _, key := range tc.mention {
				if !strings.Contains(err.Error(), key) {
					t.Errorf("expected error to mention %s, got %v", key, err)
				}
			}
		})
	}
}

// envForTest sets an environment variable, the previous value is restored when the test ends.
func envForTest(t *testing.T, key, val string) {
	t.Helper()
	t.Setenv(key, val)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
