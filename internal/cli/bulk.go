package cli

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/tphakala/go-leakix"
)

const dateFlagLayout = "2006-01-02"

func newBulkExportCommand() *Command {
	return &Command{
		Name:        "bulk-export",
		Description: "Export leak aggregations matching a query (Pro API)",
		Run:         runBulkExport,
	}
}

func newBulkServiceCommand() *Command {
	return &Command{
		Name:        "bulk-service",
		Description: "Export service events matching a query (Pro API)",
		Run:         runBulkService,
	}
}

func runBulkExport(ctx context.Context, s *session, args []string) error {
	flags, of := s.newFlagSet("bulk-export")
	query := flags.String("q", "", "Query in LeakIX search syntax")
	before := flags.String("before", "", "Only results updated before this day (YYYY-MM-DD)")
	after := flags.String("after", "", "Only results updated after this day (YYYY-MM-DD)")
	stream := flags.Bool("stream", false, "Write records as NDJSON while they arrive")

	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	queries, err := bulkExportQueries(*query, *before, *after)
	if err != nil {
		return err
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	if *stream {
		return s.withOutput(of, false, func(p *printer) error {
			return emitAll(p, client.BulkExportStream(ctx, queries))
		})
	}

	resp, err := client.BulkExport(ctx, queries)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return responseError(resp.RawResponse)
	}
	return s.withOutput(of, true, func(p *printer) error {
		return p.emit(resp.Data())
	})
}

func runBulkService(ctx context.Context, s *session, args []string) error {
	flags, of := s.newFlagSet("bulk-service")
	query := flags.String("q", "", "Query in LeakIX search syntax")
	stream := flags.Bool("stream", false, "Write records as NDJSON while they arrive")

	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	queries := rawQueries(*query)
	if *stream {
		return s.withOutput(of, false, func(p *printer) error {
			return emitAll(p, client.BulkServiceStream(ctx, queries))
		})
	}

	resp, err := client.BulkService(ctx, queries)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return responseError(resp.RawResponse)
	}
	return s.withOutput(of, true, func(p *printer) error {
		return p.emit(resp.Data())
	})
}

// bulkExportQueries combines the free text query with the update date
// bounds: before maps to update_date < day and after to update_date > day.
func bulkExportQueries(query, before, after string) ([]leakix.Query, error) {
	queries := rawQueries(query)

	if before != "" {
		day, err := time.Parse(dateFlagLayout, before)
		if err != nil {
			return nil, fmt.Errorf("invalid -before date %q: %w", before, err)
		}
		queries = append(queries, leakix.Must(leakix.NewUpdateDateField(day, leakix.StrictlySmaller)))
	}
	if after != "" {
		day, err := time.Parse(dateFlagLayout, after)
		if err != nil {
			return nil, fmt.Errorf("invalid -after date %q: %w", after, err)
		}
		queries = append(queries, leakix.Must(leakix.NewUpdateDateField(day, leakix.StrictlyGreater)))
	}
	return queries, nil
}

func emitAll[T any](p *printer, seq iter.Seq2[*T, error]) error {
	for record, err := range seq {
		if err != nil {
			return err
		}
		if err := p.emit(record); err != nil {
			return err
		}
	}
	return nil
}
