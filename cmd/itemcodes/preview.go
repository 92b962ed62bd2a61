package main

import (
	"fmt"
	"log/slog"

	"github.com/dsierp/itemcodes/config"
	"github.com/dsierp/itemcodes/itemcode"
	"github.com/dsierp/itemcodes/models"
	"github.com/spf13/cobra"
)

func previewCmd(logger func() *slog.Logger) *cobra.Command {
	var itemGroup string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the next free item code of an item group",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireDSN(); err != nil {
				return err
			}

			db, err := models.OpenPostgres(cfg.PostgresDSN, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			allocator := newAllocator(cfg, models.NewItemGroupsRepository(db), models.NewItemsRepository(db), nil, log)
			alloc, err := allocator.Preview(cmd.Context(), itemcode.Request{ItemGroup: itemGroup})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), alloc.Code)
			return nil
		},
	}
	cmd.Flags().StringVarP(&itemGroup, "item-group", "g", "", "item group name")
	cmd.MarkFlagRequired("item-group")
	return cmd
}
