package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"yoosprint/logging"
	"yoosprint/repositories"
)

type backfiller interface {
	CountMissing(ctx context.Context, collection string) (int64, error)
	SetMissing(ctx context.Context, collection, department string) (int64, error)
}

type options struct {
	MongoURI    string
	DBName      string
	Department  string
	Collections []string
	Yes         bool
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "migrate-department",
		Short: "Backfill the department field on documents that lack one",
		Long: `migrate-department sets a department on every document that has none,
one collection at a time. Each collection is confirmed interactively unless --yes is given.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.Department) == "" {
				return fmt.Errorf("--department must not be empty")
			}
			client, err := repositories.ConnectMongo(cmd.Context(), opts.MongoURI)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			db := repositories.NewDepartmentBackfill(client.Database(opts.DBName))
			return run(cmd.Context(), opts, db, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.MongoURI, "mongo-uri", envOr("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection string")
	flags.StringVar(&opts.DBName, "db", envOr("MONGO_DB_NAME", "yoosprint"), "database name")
	flags.StringVar(&opts.Department, "department", "General", "department to assign")
	flags.StringSliceVar(&opts.Collections, "collections", repositories.DepartmentCollections, "collections to migrate")
	flags.BoolVarP(&opts.Yes, "yes", "y", false, "apply without asking for confirmation")
	return cmd
}

// run walks the collections in order, asking before each update. A
// declined collection is skipped; the others still run.
func run(ctx context.Context, opts options, db backfiller, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	var total int64
	for _, collection := range opts.Collections {
		missing, err := db.CountMissing(ctx, collection)
		if err != nil {
			return err
		}
		if missing == 0 {
			fmt.Fprintf(out, "%s: nothing to migrate\n", collection)
			continue
		}

		if !opts.Yes {
			fmt.Fprintf(out, "%s: %d documents have no department. Set them to %q? [y/N] ", collection, missing, opts.Department)
			ok, err := confirm(reader)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(out, "%s: skipped\n", collection)
				continue
			}
		}

		updated, err := db.SetMissing(ctx, collection, opts.Department)
		if err != nil {
			return err
		}
		total += updated
		fmt.Fprintf(out, "%s: updated %d documents\n", collection, updated)
		logging.Logger.Infof("Event ID: DEPARTMENT_BACKFILLED, Description: Set department %q on %d documents in %s", opts.Department, updated, collection)
	}
	fmt.Fprintf(out, "done, %d documents updated\n", total)
	return nil
}

func confirm(r *bufio.Reader) (bool, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
