package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mechdash/internal"
	"mechdash/internal/config"
	"mechdash/internal/dataset"
	"mechdash/internal/logging"
	"mechdash/internal/pipeline"
	"mechdash/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON})
	must(err)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	cmd := os.Args[1]
	switch cmd {
	case "convert":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", cfg.XLSXPath, "source xlsx path")
		output := fs.String("output", cfg.JSONPath, "output json path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" || strings.TrimSpace(*output) == "" {
			must(fmt.Errorf("--input and --output are required"))
		}
		f, err := os.Open(*input)
		must(err)
		rows, err := dataset.ReadWorkbook(f)
		_ = f.Close()
		must(err)
		must(dataset.WriteJSONFile(rows, *output))
		fmt.Printf("converted %d rows to %s\n", len(rows), *output)
	case "import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		kind := fs.String("kind", "", "json|xlsx|remote (default: DATASET_KIND)")
		keep := fs.Int("keep", 5, "imports to retain, 0 keeps all")
		_ = fs.Parse(os.Args[2:])
		k := strings.ToLower(strings.TrimSpace(*kind))
		if k == "" {
			k = cfg.DatasetKind
		}
		if k == dataset.KindSQLite {
			must(fmt.Errorf("--kind=sqlite would import the database into itself"))
		}
		src, err := dataset.OpenKind(cfg, k, nil)
		must(err)
		db := openDB(cfg)
		defer db.Close()
		res, err := dataset.NewImportService(db, logger).Import(ctx, src, *keep)
		must(err)
		fmt.Printf("import done id=%d runId=%s rows=%d pruned=%d\n", res.Import.ID, res.Import.RunID, res.Import.RowCount, res.Pruned)
	case "imports":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max imports to list")
		_ = fs.Parse(os.Args[2:])
		db := openDB(cfg)
		defer db.Close()
		rows, err := db.ListImports(*limit)
		must(err)
		if len(rows) == 0 {
			fmt.Println("no imports")
			return
		}
		last, err := dataset.NewImportService(db, logger).LastImportAt()
		must(err)
		if last != nil {
			fmt.Printf("last import at %s\n", *last)
		}
		for _, r := range rows {
			fmt.Printf("id=%d runId=%s source=%s rows=%d tookMs=%d createdAt=%s\n", r.ID, r.RunID, r.Source, r.RowCount, r.TookMs, r.CreatedAt)
		}
	case "query":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		filter := filterFlags(fs)
		recordsOnly := fs.Bool("records", false, "print only the records array")
		_ = fs.Parse(os.Args[2:])
		result := runQuery(ctx, cfg, logger, filter())
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if *recordsOnly {
			must(enc.Encode(result.Records))
			return
		}
		must(enc.Encode(result))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		filter := filterFlags(fs)
		out := fs.String("out", "", "output xlsx path (default: OUTPUT_DIR named after the filters)")
		_ = fs.Parse(os.Args[2:])
		spec := filter()
		path := strings.TrimSpace(*out)
		if path == "" {
			path = filepath.Join(cfg.OutputDir, pipeline.ExportFilename(spec))
		}
		result := runQuery(ctx, cfg, logger, spec)
		must(pipeline.ExportResultToXLSX(result, path))
		fmt.Printf("exported %d records to %s\n", len(result.Records), path)
	case "rules":
		rules, err := pipeline.LoadRules(cfg.RulesPath)
		must(err)
		fmt.Println("non-additive indicators:")
		for _, name := range rules.NonAdditive.Names() {
			fmt.Printf("  %s\n", name)
		}
	default:
		usage()
		os.Exit(1)
	}
}

// filterFlags registers the dashboard filters on fs. Call the returned func
// after fs.Parse.
func filterFlags(fs *flag.FlagSet) func() pipeline.FilterSpec {
	indicator := fs.String("indicator", "", "indicator")
	coarseAge := fs.String("coarseAge", "", "coarse age band")
	sex := fs.String("sex", "", "sex")
	fiscalYear := fs.Int("fiscalYear", 0, "fiscal year")
	partner := fs.String("partner", "", "partner name")
	mechanism := fs.String("mechanismName", "", "mechanism name")
	return func() pipeline.FilterSpec {
		spec := pipeline.FilterSpec{
			Indicator: optional(*indicator),
			CoarseAge: optional(*coarseAge),
			Sex:       optional(*sex),
			Partner:   optional(*partner),
			Mechanism: optional(*mechanism),
		}
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "fiscalYear" {
				spec.FiscalYear = fiscalYear
			}
		})
		return spec
	}
}

func optional(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func runQuery(ctx context.Context, cfg config.Config, logger *zap.Logger, filter pipeline.FilterSpec) internal.QueryResult {
	rules, err := pipeline.LoadRules(cfg.RulesPath)
	must(err)
	engine := pipeline.NewEngine(rules)

	var db *storage.DB
	if cfg.DatasetKind == dataset.KindSQLite {
		db = openDB(cfg)
		defer db.Close()
	}
	src, err := dataset.Open(cfg, db)
	must(err)
	holder := dataset.NewHolder(src, engine.Normalizer(), logger)
	snap, err := holder.Reload(ctx)
	must(err)
	return engine.Query(snap.Records, filter)
}

func openDB(cfg config.Config) *storage.DB {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	return db
}

func usage() {
	fmt.Println("usage: mechdash <command>")
	fmt.Println("commands:")
	fmt.Println("  convert --input=./data/Mechanisms_Data.xlsx --output=./data/mech.json")
	fmt.Println("  import [--kind=json|xlsx|remote] [--keep=5]")
	fmt.Println("  imports [--limit=20]")
	fmt.Println("  query [--indicator=...] [--coarseAge=...] [--sex=...] [--fiscalYear=2021] [--partner=...] [--mechanismName=...] [--records]")
	fmt.Println("  export:xlsx [--out=./out/mechanisms.xlsx] [filters as for query]")
	fmt.Println("  rules")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
