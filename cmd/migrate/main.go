package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seppevistik/stockmanager/internal/infrastructure/migration"
	"github.com/seppevistik/stockmanager/pkg/config"
	"github.com/seppevistik/stockmanager/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migraciones de esquema de la base de datos",
	Long: `Aplica o revierte las migraciones SQL embebidas en el binario.

La conexión se toma de DATABASE_URL o de DB_HOST, DB_PORT, DB_USER,
DB_PASSWORD, DB_NAME y DB_SSLMODE (igual que la API).`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Aplica todas las migraciones pendientes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			return m.Up()
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revierte migraciones",
	Example: `  # Revertir la última migración
  migrate down --steps 1

  # Revertir todo el esquema
  migrate down`,
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		return withMigrator(func(m *migration.Migrator) error {
			return m.Down(steps)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Muestra la versión aplicada del esquema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "versión %d (dirty=%t)\n", v, dirty)
			return nil
		})
	},
}

func init() {
	downCmd.Flags().Int("steps", 0, "Cantidad de migraciones a revertir (0 = todas)")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

func withMigrator(fn func(m *migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	m, err := migration.New(cfg.DB.ConnectionString(), log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("cerrar migrador")
		}
	}()
	return fn(m)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
