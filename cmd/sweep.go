/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/memorialops/cemetery-gin/internal/config"
	"github.com/memorialops/cemetery-gin/internal/database"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/spf13/cobra"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark expired pending actions",
	Long: `Scan the pending action store and mark every pending action whose
deadline has passed as expired. The server treats such actions as
expired at read time regardless, so this command only persists the
status for cleaner reporting. Safe to run repeatedly, e.g. from cron.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		swept, err := repository.NewPendingActionRepository(db).SweepExpired(time.Now())
		if err != nil {
			return fmt.Errorf("failed to sweep expired actions: %w", err)
		}

		log.Printf("Swept %d expired pending actions", swept)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
}
