// Command validate performs data integrity checks on an incident extract and
// its offense code lookup before they are fed to the pipeline. It checks
// that the expected columns exist, that every incident's offense key is in
// the lookup, that victim counts are non-negative and that reported dates
// parse. Sources may be local paths or http(s) URLs.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -incidents internal/pipeline/testdata/incidents.csv \
//	  -offense-codes internal/pipeline/testdata/offense_codes.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/adapter/source"
	"github.com/couchcryptid/crime-map-etl/internal/config"
	"github.com/couchcryptid/crime-map-etl/internal/domain"
	"github.com/couchcryptid/crime-map-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/crime-map-etl/internal/table"
)

// maxErrors caps the errors a phase collects; the count keeps going.
const maxErrors = 25

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	total  int
}

func (p *phase) errorf(format string, args ...any) {
	p.total++
	if len(p.errors) < maxErrors {
		p.errors = append(p.errors, fmt.Sprintf(format, args...))
	}
}

func (p *phase) passed() bool { return p.total == 0 }

func main() {
	incidents := flag.String("incidents", config.DefaultIncidentsURL, "incident CSV path or URL")
	codes := flag.String("offense-codes", config.DefaultOffenseCodesURL, "offense code CSV path or URL")
	timeout := flag.Duration("timeout", 2*time.Minute, "fetch timeout per source")
	flag.Parse()

	if code := run(*incidents, *codes, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(incidentsLoc, codesLoc string, timeout time.Duration) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := sharedobs.NewLogger("warn", "text")
	fetcher := source.NewFetcher(timeout, observability.NewMetrics(), logger)

	fmt.Println("=== Crime Data Integrity Validation ===")
	fmt.Println()

	incidents, err := fetcher.Fetch(ctx, "incidents", incidentsLoc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	codes, err := fetcher.Fetch(ctx, "offense_codes", codesLoc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if incidents, err = domain.NormalizeColumns(incidents); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: incidents: %v\n", err)
		return 1
	}
	if codes, err = domain.NormalizeOffenseCodeColumns(codes); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: offense codes: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(incidents, codes),
		validateForeignKeys(incidents, codes),
		validateVictimCounts(incidents),
		validateReportedDates(incidents),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", p.total)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d incidents, %d offense codes\n", incidents.NumRows(), codes.NumRows())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if p.total > len(p.errors) {
			fmt.Printf("  ... and %d more\n", p.total-len(p.errors))
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Schema ──

func validateSchema(incidents, codes *table.Table) *phase {
	p := &phase{name: "Phase 1: Schema (required columns)"}

	required := append([]string{}, domain.OffenseKey...)
	required = append(required, domain.ColOffenseID, domain.ColReportedDate,
		domain.ColGeoLon, domain.ColGeoLat, domain.ColNeighborhoodID, domain.ColVictimCount)
	for _, c := range required {
		if !incidents.HasColumn(c) {
			p.errorf("incidents: missing column %q", c)
		}
	}

	lookup := append([]string{}, domain.OffenseKey...)
	lookup = append(lookup, domain.ColOffenseTypeName, domain.ColOffenseCategoryName)
	for _, c := range lookup {
		if !codes.HasColumn(c) {
			p.errorf("offense codes: missing column %q", c)
		}
	}
	return p
}

// ── Phase 2: Foreign keys ──
// Every incident's composite offense key must exist in the lookup.

func validateForeignKeys(incidents, codes *table.Table) *phase {
	p := &phase{name: "Phase 2: Offense key references"}

	known := make(map[domain.OffenseCodeKey]bool, codes.NumRows())
	for _, rec := range domain.DecodeOffenseCodes(codes) {
		k := rec.Key()
		if known[k] {
			p.errorf("offense codes: duplicate key %v", k)
		}
		known[k] = true
	}
	for i, rec := range domain.DecodeIncidents(incidents) {
		if !known[rec.Key()] {
			p.errorf("incident row %d (offense_id=%s): key %v not in lookup", i+2, rec.OffenseID, rec.Key())
		}
	}
	return p
}

// ── Phase 3: Victim counts ──

func validateVictimCounts(incidents *table.Table) *phase {
	p := &phase{name: "Phase 3: Victim counts"}

	for i := 0; i < incidents.NumRows(); i++ {
		v := incidents.Row(i).Get(domain.ColVictimCount)
		switch {
		case v.IsNull():
			p.errorf("incident row %d: victim_count is empty", i+2)
		case v.Kind() != table.KindNumber:
			p.errorf("incident row %d: victim_count %q is not a number", i+2, v.Str())
		case v.Float() < 0:
			p.errorf("incident row %d: victim_count %g is negative", i+2, v.Float())
		}
	}
	return p
}

// ── Phase 4: Reported dates ──

func validateReportedDates(incidents *table.Table) *phase {
	p := &phase{name: "Phase 4: Reported dates (M/D/YYYY)"}
	if !incidents.HasColumn(domain.ColReportedDate) {
		p.errorf("incidents: no %s column", domain.ColReportedDate)
		return p
	}

	parsed, _, err := domain.ParseReportedDates(incidents)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	for i := 0; i < parsed.NumRows(); i++ {
		if parsed.Row(i).Get(domain.ColReportedDate).IsNull() {
			p.errorf("incident row %d: reported_date %q does not parse",
				i+2, incidents.Row(i).Get(domain.ColReportedDate).Format())
		}
	}
	return p
}
