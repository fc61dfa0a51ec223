package cli

import (
	"context"

	"github.com/tphakala/go-leakix"
)

func newSearchCommand() *Command {
	return &Command{
		Name:        "search",
		Description: "Search services or leaks",
		Run:         runSearch,
	}
}

func runSearch(ctx context.Context, s *session, args []string) error {
	flags, of := s.newFlagSet("search")
	scope := flags.String("scope", string(leakix.ScopeLeak), "Result scope: service or leak")
	query := flags.String("q", "", "Query in LeakIX search syntax (empty matches everything)")
	page := flags.Int("page", 0, "Result page, starting at 0")
	all := flags.Bool("all", false, "Fetch every page")
	limit := flags.Int("limit", 0, "With -all, stop after this many results (0 means no limit)")

	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	queries := rawQueries(*query)
	sc := leakix.Scope(*scope)

	if *all {
		return s.withOutput(of, false, func(p *printer) error {
			seq := client.SearchAll(ctx, sc, queries)
			if *limit > 0 {
				seq = leakix.Take(seq, *limit)
			}
			return emitAll(p, seq)
		})
	}

	resp, err := client.SearchQuery(ctx, leakix.QuerySet(queries).Serialize(), sc, *page)
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

// rawQueries turns a search string into a query list; an empty string
// matches everything.
func rawQueries(q string) []leakix.Query {
	if q == "" {
		return nil
	}
	return []leakix.Query{leakix.RawQuery(q)}
}
