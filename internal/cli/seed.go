package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/database"
	"github.com/mrlokans/libraryhub/internal/entrypoint"
)

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories and books from a catalog file",
		Long: `Load categories and books from a YAML catalog file into the database.

Books whose ISBN is already in the catalog are skipped, so seeding twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), rootOpts, file, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog file (defaults to FIXTURE_PATH)")

	return cmd
}

func runSeed(ctx context.Context, rootOpts *RootOptions, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := rootOpts.LoadConfig()
	if path == "" {
		path = cfg.Backend.FixturePath
	}

	file, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	store := backend.NewSQL(db, entrypoint.FineRules(cfg.Circulation))
	report, err := backend.Seed(ctx, store, file)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}

	fmt.Fprintf(out, "Seeded %d categories from %s: %d books added, %d already present\n",
		report.Categories, path, report.Inserted, report.Skipped)
	return nil
}
