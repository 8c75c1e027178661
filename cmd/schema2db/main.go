package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/restkit/schema2db/internal/connector"
	"github.com/restkit/schema2db/internal/document"
	"github.com/restkit/schema2db/internal/generator"
	"github.com/restkit/schema2db/internal/migrator"
	"github.com/restkit/schema2db/internal/populator"
	"github.com/restkit/schema2db/internal/resolver"
	"github.com/restkit/schema2db/internal/utils"
)

func main() {
	var (
		specFile        string
		excludeModels   []string
		skipUnderscored bool
		onlyXTable      bool
		printDDL        bool
		populate        bool
		records         int
		host            string
		user            string
		password        string
		database        string
		port            string
		envFile         string
		logLevel        string
	)

	rootCmd := &cobra.Command{
		Use:   "schema2db",
		Short: "Resolve an API schema specification into a relational database model",
		Long: `schema2db

Reads an OpenAPI-style schema specification and derives a normalized
relational model: tables, columns, keys, indexes, foreign keys and
many-to-many relations mediated by junction schemas. The resolved model
can be printed, rendered to DDL, or applied to a MySQL database and
filled with fake data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			logger := utils.SetupLogging(logLevel)
			utils.LoadEnvironmentVariables(envFile, logger)

			// Flags left at their defaults fall back to the environment,
			// which may have been filled from the .env file just loaded
			if !cmd.Flags().Changed("records") {
				records = utils.GetEnvInt("SCHEMA2DB_NUM_RECORDS", records)
			}
			if !cmd.Flags().Changed("skip-underscored") {
				skipUnderscored = utils.GetEnvBool("SCHEMA2DB_SKIP_UNDERSCORED", skipUnderscored)
			}

			doc, err := document.LoadFile(specFile, logger)
			if err != nil {
				return err
			}

			cfg := resolver.Config{
				ExcludeModels:            excludeModels,
				SkipUnderscoredSchemas:   skipUnderscored,
				GenerateModelsOnlyXTable: onlyXTable,
			}

			orchestrator := resolver.NewSchemaToDatabase(cfg, logger)
			tables, err := orchestrator.PrepareModels(doc)
			if err != nil {
				return fmt.Errorf("resolving schema document: %w", err)
			}
			if len(tables) == 0 {
				logger.Warning("No schemas were eligible for table generation")
			}

			utils.PrintModelAnalysis(tables)

			if printDDL {
				utils.PrintDDL(migrator.BuildDDL(tables))
			}

			if !populate {
				return nil
			}

			db := connector.NewDatabaseConnector(host, user, password, database, port, logger)
			if err := db.Connect(); err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Disconnect()

			if _, err := migrator.NewMigrator(db, logger).Apply(tables); err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}

			dataGenerator := generator.NewDataGenerator(logger)
			dbPopulator := populator.NewDatabasePopulator(db, dataGenerator, records, logger)
			if !dbPopulator.Populate(tables) {
				return fmt.Errorf("population failed for %d tables", len(dbPopulator.FailedTables))
			}

			return nil
		},
	}

	rootCmd.Flags().StringVarP(&specFile, "spec", "s", "", "Path to the schema specification file (YAML or JSON)")
	rootCmd.Flags().StringSliceVar(&excludeModels, "exclude-models", nil, "Schema names that never produce tables")
	rootCmd.Flags().BoolVar(&skipUnderscored, "skip-underscored", false, "Skip schemas whose name starts with an underscore")
	rootCmd.Flags().BoolVar(&onlyXTable, "only-x-table", false, "Only generate tables for schemas carrying an x-table annotation")
	rootCmd.Flags().BoolVar(&printDDL, "ddl", false, "Print the rendered DDL statements")
	rootCmd.Flags().BoolVar(&populate, "populate", false, "Apply the DDL to MySQL and insert fake data")
	rootCmd.Flags().IntVarP(&records, "records", "r", 10, "Number of fake records to insert per table")
	rootCmd.Flags().StringVarP(&host, "host", "H", "", "MySQL host (default: localhost)")
	rootCmd.Flags().StringVarP(&user, "user", "u", "", "MySQL user (default: root)")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "MySQL password")
	rootCmd.Flags().StringVarP(&database, "database", "d", "", "MySQL database name")
	rootCmd.Flags().StringVarP(&port, "port", "P", "", "MySQL port (default: 3306)")
	rootCmd.Flags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.MarkFlagRequired("spec")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
