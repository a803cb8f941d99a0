package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"zonuko/internal/repository"
	"zonuko/internal/service"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Import or export the project catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Create or update projects from a YAML catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		file, err := service.ParseCatalog(f)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		e, err := openEnv(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rdb, err := repository.NewRedisClient(ctx, e.cfg.RedisAddr)
		if err != nil {
			e.log.Warn("Catalog cache not reachable, skipping invalidation", "error", err)
		}
		if rdb != nil {
			defer rdb.Close()
		}
		cache := repository.NewCachedCatalog(repository.NewCatalogRepository(e.db), rdb, e.cfg.CatalogCacheTTL, e.log)

		sum, err := service.NewCatalogService(e.db, cache, e.log).Import(ctx, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new and %d updated projects (%d skills)\n", sum.Created, sum.Updated, sum.Skills)
		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored catalog as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		file, err := service.NewCatalogService(e.db, nil, e.log).Export(ctx)
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return service.WriteCatalog(out, file)
	},
}

func init() {
	catalogExportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogExportCmd)
}
