package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opencivic/event-siting/internal/config"
	"github.com/opencivic/event-siting/internal/export"
	"github.com/opencivic/event-siting/internal/loader"
	"github.com/opencivic/event-siting/internal/model"
	"github.com/opencivic/event-siting/internal/siting"
	"github.com/opencivic/event-siting/internal/store"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Run a siting pass and export ranked event sites",
	Long: `Run one batch siting pass: load tract boundaries, the tract indicator
table, and candidate POIs; join each POI to its containing tract; score the
matched POIs from weighted, normalized tract indicators; and export the
ranked result set as GeoJSON and CSV into a per-run output directory.

Examples:
  # Run with the config file's inputs and indicators
  event-siting site

  # Name the run and keep only library and school POIs
  event-siting site --run-name hamilton-county --poi-types library,school

  # Exclude indicators missing for a tract instead of substituting the midpoint
  event-siting site --missing-policy exclude`,
	RunE: runSite,
}

func init() {
	f := siteCmd.Flags()
	f.String("run-name", "", "run name used in the output directory (overrides config)")
	f.String("output", "", "output directory (overrides config)")
	f.String("poi-types", "", "comma-separated POI categories to keep (overrides config)")
	f.String("missing-policy", "", "missing indicator policy: midpoint or exclude (overrides config)")
	f.Int("top", 0, "number of top sites to print (overrides config)")
	f.Int("workers", 0, "parallel scoring workers (0 = number of CPUs)")

	rootCmd.AddCommand(siteCmd)
}

func runSite(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sitingCfg := applySitingOverrides(cmd, cfg.Siting)
	if err := siting.ValidateConfig(sitingCfg); err != nil {
		return err
	}
	if cfg.Inputs.TractEPSG != cfg.Inputs.POIEPSG {
		return eris.Wrapf(siting.ErrGeometry,
			"site: tract EPSG %d and POI EPSG %d must agree; reproject the inputs before running",
			cfg.Inputs.TractEPSG, cfg.Inputs.POIEPSG)
	}

	outDir := cfg.Inputs.OutputDir
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		outDir = v
	}

	runID := strings.ReplaceAll(uuid.NewString(), "-", "")
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("starting siting run", zap.String("run_name", sitingCfg.RunName))

	inputs, err := loadInputs(sitingCfg)
	if err != nil {
		return err
	}

	result, err := siting.New(sitingCfg).Run(ctx, inputs)
	if err != nil {
		return eris.Wrap(err, "site: scoring pass")
	}
	result.Summary.RunID = runID
	result.Summary.RunName = sitingCfg.RunName

	runDir, err := export.NewRunDir(outDir, runID, sitingCfg.RunName)
	if err != nil {
		return err
	}
	result.Summary.OutputDir = runDir

	if err := exportResult(runDir, sitingCfg, result); err != nil {
		return err
	}

	if err := recordRun(ctx, result.Summary); err != nil {
		// Run history is a convenience; the exports already landed.
		log.Warn("failed to record run", zap.Error(err))
	}

	printRunSummary(result, sitingCfg.TopN, runDir)
	return nil
}

func loadInputs(sitingCfg config.SitingConfig) (siting.Inputs, error) {
	table, err := loader.LoadIndicatorTable(cfg.Inputs.IndicatorPath, cfg.Inputs.IndicatorGEOIDColumn)
	if err != nil {
		return siting.Inputs{}, err
	}

	// Fail on unknown indicator names before the heavier loads.
	if err := siting.CheckSchema(sitingCfg, table.Columns()); err != nil {
		return siting.Inputs{}, err
	}

	tracts, err := loader.LoadTracts(cfg.Inputs.TractPath, cfg.Inputs.TractGEOIDField, table)
	if err != nil {
		return siting.Inputs{}, err
	}

	pois, err := loader.LoadPOIs(cfg.Inputs.POIPath, loader.POIOptions{
		IDField:       cfg.Inputs.POIIDField,
		NameField:     cfg.Inputs.POINameField,
		CategoryField: cfg.Inputs.POICategoryField,
		LonField:      cfg.Inputs.POILonField,
		LatField:      cfg.Inputs.POILatField,
		Types:         sitingCfg.POITypes,
	})
	if err != nil {
		return siting.Inputs{}, err
	}

	return siting.Inputs{Tracts: tracts, POIs: pois}, nil
}

func exportResult(runDir string, sitingCfg config.SitingConfig, result *siting.Result) error {
	geojsonPath := filepath.Join(runDir, "potential_event_sites.geojson")
	csvPath := filepath.Join(runDir, "potential_event_sites.csv")
	unmatchedPath := filepath.Join(runDir, "unmatched.csv")
	manifestPath := filepath.Join(runDir, "run.yaml")

	if err := export.WriteGeoJSON(geojsonPath, result.Sites); err != nil {
		return err
	}

	order := make([]string, 0, len(sitingCfg.Indicators))
	for _, ind := range sitingCfg.Indicators {
		order = append(order, ind.Name)
	}
	if err := export.WriteSitesCSV(csvPath, result.Sites, order); err != nil {
		return err
	}
	if err := export.WriteUnmatchedCSV(unmatchedPath, result.Unmatched); err != nil {
		return err
	}

	manifest := export.NewManifest(result.Summary, sitingCfg, []string{
		filepath.Base(geojsonPath),
		filepath.Base(csvPath),
		filepath.Base(unmatchedPath),
	})
	return export.WriteManifest(manifestPath, manifest)
}

func recordRun(ctx context.Context, sum model.RunSummary) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return st.RecordRun(ctx, sum)
}

func applySitingOverrides(cmd *cobra.Command, base config.SitingConfig) config.SitingConfig {
	c := base

	if v, _ := cmd.Flags().GetString("run-name"); v != "" {
		c.RunName = v
	}
	if v, _ := cmd.Flags().GetString("poi-types"); v != "" {
		c.POITypes = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetString("missing-policy"); v != "" {
		c.MissingPolicy = v
	}
	if v, _ := cmd.Flags().GetInt("top"); v > 0 {
		c.TopN = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		c.Workers = v
	}

	return c
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printRunSummary(result *siting.Result, topN int, runDir string) {
	s := result.Summary
	fmt.Printf("Run %s complete\n", s.RunID)
	fmt.Printf("  Tracts:           %d\n", s.Tracts)
	if s.FocusTracts > 0 {
		fmt.Printf("  Focus tracts:     %d\n", s.FocusTracts)
	}
	fmt.Printf("  POIs scored:      %d of %d\n", s.Matched, s.TotalPOIs)
	fmt.Printf("  Unmatched:        %d (invalid coords: %d, out of focus: %d)\n",
		s.Unmatched, s.InvalidCoords, s.OutOfFocus)
	fmt.Printf("  Missing values:   %d\n", s.MissingIndicators)
	fmt.Printf("  Output:           %s\n", runDir)

	if topN > len(result.Sites) {
		topN = len(result.Sites)
	}
	if topN > 0 {
		fmt.Printf("\nTop %d sites:\n", topN)
		fmt.Printf("%-5s %-24s %-28s %-12s %s\n", "RANK", "ID", "NAME", "TRACT", "SCORE")
		for _, site := range result.Sites[:topN] {
			name := site.POI.Name
			if name == "" {
				name = "NAME UNKNOWN"
			}
			fmt.Printf("%-5d %-24s %-28s %-12s %.4f\n",
				site.Rank, truncate(site.POI.ID, 24), truncate(name, 28), site.TractGEOID, site.Score)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
