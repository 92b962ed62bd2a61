package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/dsierp/itemcodes/config"
	"github.com/dsierp/itemcodes/models"
	"github.com/dsierp/itemcodes/seed"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

func seedCmd(logger func() *slog.Logger) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load item groups from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireDSN(); err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			groups, err := seed.Load(f)
			if err != nil {
				return err
			}
			ordered, err := groups.Ordered()
			if err != nil {
				return err
			}

			// Creates the tables on a fresh database.
			gdb, err := models.OpenPostgres(cfg.PostgresDSN, log)
			if err != nil {
				return err
			}
			if sqlDB, err := gdb.DB(); err == nil {
				sqlDB.Close()
			}

			db, err := sql.Open("postgres", cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			return seed.Apply(cmd.Context(), db, ordered, log)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "item_groups.yaml", "seed file")
	return cmd
}
