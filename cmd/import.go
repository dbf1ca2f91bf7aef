package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pointpattern/internal/db"
	"github.com/sells-group/pointpattern/internal/featureio"
	"github.com/sells-group/pointpattern/internal/geospatial"
)

var (
	importInput string
	importTable string
	importSRID  int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a feature file into a PostGIS table",
	Long:  "Creates the table if needed and bulk-copies every feature of a GeoJSON, WKT or shapefile into it, so it can be analysed with analyze --table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}

		table, err := db.ParseTable(importTable)
		if err != nil {
			return err
		}

		fc, err := featureio.Load(importInput)
		if err != nil {
			return err
		}

		pool, err := initPostGIS(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		srid := importSRID
		if srid == 0 {
			srid = cfg.PostGIS.SRID
		}

		n, err := geospatial.ImportFeatures(ctx, pool, table, fc, srid)
		if err != nil {
			return eris.Wrap(err, "import features")
		}

		zap.L().Info("import complete",
			zap.Int64("rows", n),
			zap.String("table", table.String()),
			zap.String("input", importInput),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "feature file to import (required)")
	importCmd.Flags().StringVar(&importTable, "table", "", "destination table, schema.name (required)")
	importCmd.Flags().IntVar(&importSRID, "srid", 0, "SRID of the input coordinates (default from config)")
	_ = importCmd.MarkFlagRequired("input")
	_ = importCmd.MarkFlagRequired("table")
	rootCmd.AddCommand(importCmd)
}
