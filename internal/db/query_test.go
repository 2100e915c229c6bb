package db_test

import (
	"reflect"
	"testing"

	"github.com/willemschots/signin/internal/db"
	"github.com/willemschots/signin/internal/krypto"
)

func Test_Query(t *testing.T) {
	t.Run("ok, params", func(t *testing.T) {
		var q db.Query
		q.Unsafe("SELECT * FROM accounts WHERE status = ")
		q.Param("active")
		q.Unsafe(" AND id IN (")
		q.Params(1, 2, 3)
		q.Unsafe(")")

		query, params, err := q.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantQuery := "SELECT * FROM accounts WHERE status = ? AND id IN (?, ?, ?)"
		if query != wantQuery {
			t.Errorf("got\n%s\nwant\n%s", query, wantQuery)
		}

		wantParams := []any{"active", 1, 2, 3}
		if !reflect.DeepEqual(params, wantParams) {
			t.Errorf("got %v, want %v", params, wantParams)
		}
	})

	t.Run("ok, encrypted param can be decrypted", func(t *testing.T) {
		enc := must(krypto.NewEncryptor([]krypto.Key{
			must(krypto.ParseKey("2b671594b775f371eab4050b4d58326682df6b1a6cc2e886717b1a26b4d6c45d")),
		}))

		q := db.Query{Encryptor: enc}
		q.ParamEncrypted([]byte("admin@email.com"))

		_, params, err := q.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		target := q.DecryptionTarget()
		err = target.Scan(params[0])
		if err != nil {
			t.Fatalf("failed to scan: %v", err)
		}

		if string(target.Data) != "admin@email.com" {
			t.Errorf("got %q, want %q", target.Data, "admin@email.com")
		}
	})

	t.Run("ok, equal blind indexes for equal values", func(t *testing.T) {
		key := must(krypto.ParseKey("90303dfed7994260ea4817a5ca8a392915cd401115b2f97495dadfcbcd14adbf"))

		get := func(v string) any {
			q := db.Query{BlindIndexKey: key}
			q.ParamBlindIndex([]byte(v))
			_, params, err := q.Get()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return params[0]
		}

		if get("admin@email.com") != get("admin@email.com") {
			t.Errorf("expected blind indexes to be equal")
		}

		if get("admin@email.com") == get("user@email.com") {
			t.Errorf("expected blind indexes to differ")
		}
	})

	t.Run("ok, list of blind indexes", func(t *testing.T) {
		q := db.Query{BlindIndexKey: must(krypto.ParseKey("90303dfed7994260ea4817a5ca8a392915cd401115b2f97495dadfcbcd14adbf"))}
		q.Unsafe("SELECT id FROM accounts WHERE identity_blind_index IN (")
		q.ParamBlindIndexes([]byte("admin@email.com"), []byte("user@email.com"))
		q.Unsafe(")")

		query, params, err := q.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantQuery := "SELECT id FROM accounts WHERE identity_blind_index IN (?, ?)"
		if query != wantQuery {
			t.Errorf("got\n%s\nwant\n%s", query, wantQuery)
		}

		if len(params) != 2 || params[0] == params[1] {
			t.Errorf("expected two different blind indexes, got %v", params)
		}
	})

	t.Run("fail, encrypted param without encryptor", func(t *testing.T) {
		var q db.Query
		q.ParamEncrypted([]byte("admin@email.com"))

		query, params, err := q.Get()
		if err == nil {
			t.Fatalf("expected error, got <nil>")
		}

		if query != "" || params != nil {
			t.Errorf("expected no query on error, got %q %v", query, params)
		}
	})

	t.Run("fail, blind index without key", func(t *testing.T) {
		var q db.Query
		q.ParamBlindIndex([]byte("admin@email.com"))

		_, _, err := q.Get()
		if err == nil {
			t.Fatalf("expected error, got <nil>")
		}
	})
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
