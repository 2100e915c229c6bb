// Command dbmigrate applies the embedded migrations to a sqlite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/willemschots/signin/internal/db"
	"github.com/willemschots/signin/internal/db/migrate"
	"github.com/willemschots/signin/migrations"
)

const helpText = `Usage: dbmigrate [-pending] <sqlite_file>

  -pending  only list the migrations that have not been applied yet`

func main() {
	pendingOnly := flag.Bool("pending", false, "only list pending migrations")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, helpText)
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	sqlDB, err := db.OpenSQLite(flag.Arg(0), !*pendingOnly)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	if *pendingOnly {
		pending, err := migrate.Pending(ctx, sqlDB, migrations.FS)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to check migrations: %v\n", err)
			os.Exit(1)
		}

		if len(pending) == 0 {
			fmt.Println("database is up to date")
		}

		for _, name := range pending {
			fmt.Println(name)
		}
		return
	}

	ran, err := migrate.RunFS(ctx, sqlDB, migrations.FS, migrate.BuildMetadata())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	if len(ran) == 0 {
		fmt.Println("database is up to date")
	}

	for _, migration := range ran {
		fmt.Printf("%d: %s\n", migration.Sequence, migration.Filename)
	}
}
