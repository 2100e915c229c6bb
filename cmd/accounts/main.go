// Command accounts manages the accounts that can log in.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/willemschots/signin/internal/auth"
	authdb "github.com/willemschots/signin/internal/auth/db"
	"github.com/willemschots/signin/internal/db"
	"github.com/willemschots/signin/internal/email"
	"github.com/willemschots/signin/internal/krypto"
)

const helpText = `Usage: accounts <command> [email]

Commands:
  create <email>      create an active account, the secret is read from stdin
  suspend <email>     suspend an account
  reactivate <email>  reactivate a suspended account
  secret <email>      change the secret of an account, read from stdin
  list                list all accounts and their failed login attempts

Environment:
  DB_FILENAME         sqlite file (default: signin.db)
  DB_ENCRYPTION_KEYS  comma separated encryption keys (required)
  BLIND_INDEX_KEY     blind index key (required)

The database needs to be migrated using dbmigrate first.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if len(args) == 0 {
		fmt.Fprintln(stderr, helpText)
		return 2
	}

	svc, store, closeFunc, err := serviceFromEnv()
	if err != nil {
		logger.Error("failed to set up account service", "error", err)
		return 1
	}
	defer closeFunc()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cmd, args := args[0], args[1:]
	if cmd == "list" {
		err = list(ctx, svc, store, stdout)
		if err != nil {
			logger.Error("failed to list accounts", "error", err)
			return 1
		}
		return 0
	}

	if len(args) != 1 {
		fmt.Fprintln(stderr, helpText)
		return 2
	}

	identity, err := email.ParseAddress(args[0])
	if err != nil {
		logger.Error("invalid email", "email", args[0], "error", err)
		return 1
	}

	switch cmd {
	case "create":
		var secret auth.Secret
		secret, err = readSecret(stdin)
		if err != nil {
			break
		}

		var a auth.Account
		a, err = svc.CreateAccount(ctx, auth.NewAccount{Identity: identity, Secret: secret})
		if err == nil {
			logger.Info("account created", "id", a.ID, "identity", a.Identity)
		}
	case "suspend":
		err = svc.SuspendAccount(ctx, identity)
		if err == nil {
			logger.Info("account suspended", "identity", identity)
		}
	case "reactivate":
		err = svc.ReactivateAccount(ctx, identity)
		if err == nil {
			logger.Info("account reactivated", "identity", identity)
		}
	case "secret":
		var secret auth.Secret
		secret, err = readSecret(stdin)
		if err != nil {
			break
		}

		err = svc.ChangeSecret(ctx, identity, secret)
		if err == nil {
			logger.Info("secret changed", "identity", identity)
		}
	default:
		fmt.Fprintln(stderr, helpText)
		return 2
	}

	if err != nil {
		logger.Error("command failed", "command", cmd, "identity", identity, "error", err)
		return 1
	}

	return 0
}

func serviceFromEnv() (*auth.AccountService, *authdb.Store, func(), error) {
	file := os.Getenv("DB_FILENAME")
	if file == "" {
		file = "signin.db"
	}

	keys, err := krypto.ParseKeys(os.Getenv("DB_ENCRYPTION_KEYS"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("DB_ENCRYPTION_KEYS: %w", err)
	}

	encryptor, err := krypto.NewEncryptor(keys)
	if err != nil {
		return nil, nil, nil, err
	}

	indexKey, err := krypto.ParseKey(os.Getenv("BLIND_INDEX_KEY"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("BLIND_INDEX_KEY: %w", err)
	}

	sqlDB, err := db.OpenSQLite(file, true)
	if err != nil {
		return nil, nil, nil, err
	}

	store := authdb.New(sqlDB, sqlDB, encryptor, indexKey)

	return auth.NewAccountService(store), store, func() { _ = sqlDB.Close() }, nil
}

// readSecret reads a secret from the first line of r.
func readSecret(r io.Reader) (auth.Secret, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return auth.Secret{}, err
	}

	return auth.ParseSecret(strings.TrimRight(line, "\r\n"))
}

// attemptCounter counts persisted login attempts.
type attemptCounter interface {
	CountLoginAttempts(ctx context.Context, identity string, outcome auth.Outcome) (int, error)
}

func list(ctx context.Context, svc *auth.AccountService, attempts attemptCounter, w io.Writer) error {
	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tIDENTITY\tSTATUS\tFAILED\tCREATED")
	for _, a := range accounts {
		failed, err := attempts.CountLoginAttempts(ctx, string(a.Identity), auth.OutcomeInvalidSecret)
		if err != nil {
			return fmt.Errorf("account %s: %w", a.ID, err)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", a.ID, a.Identity, a.Status, failed, a.CreatedAt.Format(time.RFC3339))
	}

	return tw.Flush()
}
