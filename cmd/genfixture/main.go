// Command genfixture trims a full Denver incident extract and its offense
// code lookup down to a small, consistent fixture pair for tests. Only
// offense codes referenced by the kept incidents are written, so the join
// stays complete. It then prints the query results so test assertions can
// be updated by hand.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -incidents data/crime.csv \
//	  -offense-codes data/offense_codes.csv \
//	  -out-dir internal/pipeline/testdata \
//	  -limit 200
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/couchcryptid/crime-map-etl/internal/table"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	incidentsPath := flag.String("incidents", "", "path to the incident CSV extract")
	codesPath := flag.String("offense-codes", "", "path to the offense code CSV")
	outDir := flag.String("out-dir", "", "directory to write incidents.csv and offense_codes.csv")
	limit := flag.Int("limit", 200, "number of incident rows to keep")
	category := flag.String("category", "other-crimes-against-persons", "category used for the stats filter")
	flag.Parse()

	if *incidentsPath == "" || *codesPath == "" || *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -incidents, -offense-codes, -out-dir")
	}

	incidents, err := readCSV(*incidentsPath)
	if err != nil {
		return err
	}
	codes, err := readCSV(*codesPath)
	if err != nil {
		return err
	}
	log.Printf("read %d incidents, %d offense codes", incidents.NumRows(), codes.NumRows())

	kept := incidents.Head(*limit)
	keptCodes, err := referencedCodes(kept, codes)
	if err != nil {
		return err
	}
	log.Printf("kept %d incidents, %d offense codes", kept.NumRows(), keptCodes.NumRows())

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeCSV(filepath.Join(*outDir, "incidents.csv"), kept); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(*outDir, "offense_codes.csv"), keptCodes); err != nil {
		return err
	}

	return printStats(kept, keptCodes, *category)
}

func readCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := table.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

func writeCSV(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %s (%d rows)", path, t.NumRows())
	return f.Close()
}

// referencedCodes keeps the lookup rows whose key appears in incidents. The
// returned table keeps the lookup's original column names.
func referencedCodes(incidents, codes *table.Table) (*table.Table, error) {
	normIncidents, err := domain.NormalizeColumns(incidents)
	if err != nil {
		return nil, err
	}
	normCodes, err := domain.NormalizeOffenseCodeColumns(codes)
	if err != nil {
		return nil, err
	}

	used := make(map[domain.OffenseCodeKey]bool)
	for _, rec := range domain.DecodeIncidents(normIncidents) {
		used[rec.Key()] = true
	}
	decoded := domain.DecodeOffenseCodes(normCodes)
	return codes.Filter(func(r table.Row) bool {
		return used[decoded[r.Index()].Key()]
	}), nil
}

func printStats(incidents, codes *table.Table, category string) error {
	incidents, err := domain.NormalizeColumns(incidents)
	if err != nil {
		return err
	}
	codes, err = domain.NormalizeOffenseCodeColumns(codes)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Incidents: %d\n", incidents.NumRows())
	fmt.Printf("Offense codes: %d\n", codes.NumRows())

	cats, err := domain.DistinctCategories(incidents)
	if err != nil {
		return err
	}
	fmt.Printf("Distinct categories (%d): %s\n", cats.NumRows(), strings.Join(formatColumn(cats, domain.ColOffenseCategoryID), ", "))

	filtered, err := domain.FilterByCategory(incidents, category)
	if err != nil {
		return err
	}
	fmt.Printf("Offense types in %q: %d\n", category, filtered.NumRows())

	top, err := domain.TopByVictimCount(incidents, domain.TopN)
	if err != nil {
		return err
	}
	fmt.Println("\nTop by victim count:")
	for i := 0; i < top.NumRows(); i++ {
		r := top.Row(i)
		fmt.Printf("  %s %s victims=%s\n",
			r.Get(domain.ColOffenseID).Format(),
			r.Get(domain.ColOffenseCategoryID).Format(),
			r.Get(domain.ColVictimCount).Format())
	}

	joined := domain.JoinOffenseCodes(incidents, codes)
	fmt.Printf("\nJoined rows: %d\n", joined.NumRows())

	_, failures, err := domain.ParseReportedDates(incidents)
	if err != nil {
		return err
	}
	fmt.Printf("Unparseable reported dates: %d\n", failures)
	return nil
}

func formatColumn(t *table.Table, column string) []string {
	out := make([]string, t.NumRows())
	for i := range out {
		out[i] = t.Row(i).Get(column).Format()
	}
	return out
}
