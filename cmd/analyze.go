package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/pointpattern/internal/db"
	"github.com/sells-group/pointpattern/internal/featureio"
	"github.com/sells-group/pointpattern/internal/geometry"
	"github.com/sells-group/pointpattern/internal/geospatial"
	"github.com/sells-group/pointpattern/internal/store"
)

var analyzeFlags struct {
	input          string
	table          string
	limit          int
	clip           bool
	bbox           string
	studyArea      string
	studyAreaTable string
	studyAreaID    string
	units          string
	metric         string
	workers        int
	indexThreshold int
	allowMultiPart bool
	format         string
	output         string
	save           bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute the nearest neighbour index of a point dataset",
	Long: `Reads features from a GeoJSON, WKT or shapefile (--input) or a PostGIS
table (--table), reduces each to its centroid and compares the mean
nearest-neighbour distance with that expected of a random pattern over the
study area. The study area is, in order of preference, --study-area,
--study-area-table/--study-area-id, --bbox, or the bounding box of the data.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		params, err := analyzeParams(cmd)
		if err != nil {
			return err
		}

		fc, source, studyArea, err := loadAnalysisInput(ctx, params.BBox)
		if err != nil {
			return err
		}

		var st store.Store
		if analyzeFlags.save {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		out, err := runAnalysis(ctx, st, source, fc, studyArea, params, cfg.Analysis)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		var w io.Writer = os.Stdout
		if analyzeFlags.output != "" {
			f, err := os.Create(analyzeFlags.output)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		return writeOutcome(w, analyzeFlags.format, out)
	},
}

// analyzeParams collects the flags that were set explicitly; the rest fall
// back to config.
func analyzeParams(cmd *cobra.Command) (analysisParams, error) {
	bbox, err := parseBBox(analyzeFlags.bbox)
	if err != nil {
		return analysisParams{}, err
	}
	p := analysisParams{
		Units:  analyzeFlags.units,
		Metric: analyzeFlags.metric,
		BBox:   bbox,
	}
	if cmd.Flags().Changed("workers") {
		p.Workers = &analyzeFlags.workers
	}
	if cmd.Flags().Changed("index-threshold") {
		p.IndexThreshold = &analyzeFlags.indexThreshold
	}
	if cmd.Flags().Changed("allow-multipart") {
		p.AllowMultiPart = &analyzeFlags.allowMultiPart
	}
	return p, nil
}

// loadAnalysisInput reads the points and the optional study-area feature
// named by the flags. source identifies the points in the run history.
func loadAnalysisInput(ctx context.Context, bbox []float64) (*geojson.FeatureCollection, string, *geojson.Feature, error) {
	switch {
	case analyzeFlags.input != "" && analyzeFlags.table != "":
		return nil, "", nil, eris.New("--input and --table are mutually exclusive")
	case analyzeFlags.input == "" && analyzeFlags.table == "":
		return nil, "", nil, eris.New("one of --input or --table is required")
	}
	if analyzeFlags.studyArea != "" && analyzeFlags.studyAreaTable != "" {
		return nil, "", nil, eris.New("--study-area and --study-area-table are mutually exclusive")
	}
	if (analyzeFlags.studyAreaTable == "") != (analyzeFlags.studyAreaID == "") {
		return nil, "", nil, eris.New("--study-area-table and --study-area-id must be used together")
	}

	needsDB := analyzeFlags.table != "" || analyzeFlags.studyAreaTable != ""
	var pool db.Pool
	if needsDB {
		p, err := initPostGIS(ctx)
		if err != nil {
			return nil, "", nil, err
		}
		defer p.Close()
		pool = p
	}
	cols := geospatial.Columns{Geom: cfg.PostGIS.GeomColumn, ID: cfg.PostGIS.IDColumn}

	var (
		fc     *geojson.FeatureCollection
		source string
		err    error
	)
	if analyzeFlags.input != "" {
		source = analyzeFlags.input
		fc, err = featureio.Load(analyzeFlags.input)
		if err != nil {
			return nil, "", nil, err
		}
	} else {
		table, err := db.ParseTable(analyzeFlags.table)
		if err != nil {
			return nil, "", nil, err
		}
		source = "postgis:" + table.String()
		opts := geospatial.QueryOptions{Columns: cols, Limit: analyzeFlags.limit}
		if analyzeFlags.clip {
			if bbox == nil {
				return nil, "", nil, eris.New("--clip requires --bbox")
			}
			b, err := geometry.NewBBox(bbox)
			if err != nil {
				return nil, "", nil, err
			}
			opts.BBox = &b
		}
		fc, err = geospatial.LoadFeatures(ctx, pool, table, opts)
		if err != nil {
			return nil, "", nil, err
		}
	}

	var studyArea *geojson.Feature
	switch {
	case analyzeFlags.studyArea != "":
		studyArea, err = featureio.LoadStudyArea(analyzeFlags.studyArea)
	case analyzeFlags.studyAreaTable != "":
		var table db.Table
		table, err = db.ParseTable(analyzeFlags.studyAreaTable)
		if err == nil {
			studyArea, err = geospatial.LoadStudyArea(ctx, pool, table, cols, analyzeFlags.studyAreaID)
		}
	}
	if err != nil {
		return nil, "", nil, err
	}

	return fc, source, studyArea, nil
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.input, "input", "i", "", "points file (.geojson, .json, .wkt, .shp) or - for GeoJSON on stdin")
	f.StringVar(&analyzeFlags.table, "table", "", "PostGIS table of points (schema.name)")
	f.IntVar(&analyzeFlags.limit, "limit", 0, "max rows to read from --table (0 = all)")
	f.BoolVar(&analyzeFlags.clip, "clip", false, "only read --table rows intersecting --bbox")
	f.StringVar(&analyzeFlags.bbox, "bbox", "", "study area rectangle minX,minY,maxX,maxY")
	f.StringVar(&analyzeFlags.studyArea, "study-area", "", "file whose first feature is the study area polygon")
	f.StringVar(&analyzeFlags.studyAreaTable, "study-area-table", "", "PostGIS table holding the study area polygon")
	f.StringVar(&analyzeFlags.studyAreaID, "study-area-id", "", "id of the study area row in --study-area-table")
	f.StringVar(&analyzeFlags.units, "units", "", "distance unit: kilometers, meters, miles, nauticalmiles, feet, yards (default from config)")
	f.StringVar(&analyzeFlags.metric, "metric", "", "geodesic or planar (default from config)")
	f.IntVar(&analyzeFlags.workers, "workers", 0, "nearest-neighbour search goroutines (0 = GOMAXPROCS)")
	f.IntVar(&analyzeFlags.indexThreshold, "index-threshold", 0, "planar point count at which a quadtree is used (0 = never)")
	f.BoolVar(&analyzeFlags.allowMultiPart, "allow-multipart", false, "accept MultiPolygon study areas")
	f.StringVarP(&analyzeFlags.format, "format", "f", formatGeoJSON, "output format: geojson, json, yaml or table")
	f.StringVarP(&analyzeFlags.output, "output", "o", "", "write output to a file instead of stdout")
	f.BoolVar(&analyzeFlags.save, "save", false, "record the run in the run store")
	rootCmd.AddCommand(analyzeCmd)
}
