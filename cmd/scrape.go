package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nepaliabroad/resources/internal/clock/system"
	"github.com/nepaliabroad/resources/internal/config"
	"github.com/nepaliabroad/resources/internal/fetch"
	"github.com/nepaliabroad/resources/internal/policy/ratelimit"
	"github.com/nepaliabroad/resources/internal/resource"
	"github.com/nepaliabroad/resources/internal/scraper"
)

func newScrapeCmd() *cobra.Command {
	var (
		sourceName string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Collect records from the configured sources.",
		Long: `scrape fetches each configured source, honoring robots.txt and the
configured request delay, and upserts parsed records into the store.
With --dry-run, records go to an in-memory store and the database is
never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, dryRun)
			if err != nil {
				return err
			}
			defer a.shutdown()

			sources := a.cfg.AllSources()
			if sourceName != "" {
				sources = filterSources(sources, sourceName)
				if len(sources) == 0 {
					return fmt.Errorf("no configured source named %q", sourceName)
				}
			}

			gate := fetch.NewRobotsGate(fetch.RobotsGateConfig{
				UserAgent: a.cfg.Fetch.UserAgent,
				CacheTTL:  a.cfg.Fetch.RobotsCacheTTL,
				Timeout:   a.cfg.RequestTimeout(),
			}, a.logger)
			client := fetch.NewClient(fetch.ClientConfig{
				UserAgent:    a.cfg.Fetch.UserAgent,
				Timeout:      a.cfg.RequestTimeout(),
				MaxRetries:   a.cfg.Fetch.MaxRetries,
				MaxBodyBytes: a.cfg.Fetch.MaxBodyBytes,
			}, ratelimit.New(a.cfg.RequestDelay()), a.logger)

			s := scraper.New(client, gate, a.store, sourceParsers(a.cfg), system.New(), a.logger)
			stats, err := s.Run(ctx, sources)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"fetched %d source(s), skipped %d, failed %d; parsed %d record(s), upserted %d\n",
				stats.SourcesFetched, stats.SourcesSkipped, stats.SourcesFailed,
				stats.RecordsParsed, stats.Upserted,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceName, "source", "", "scrape only the named source")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without writing to the database")
	return cmd
}

func filterSources(sources []resource.Source, name string) []resource.Source {
	var out []resource.Source
	for _, src := range sources {
		if src.Name == name {
			out = append(out, src)
		}
	}
	return out
}

// sourceParsers maps source names to their page parsers. Every source
// gets the generic listing parser for its category; sites needing
// structured extraction would register a dedicated parser here.
func sourceParsers(cfg config.Config) map[string]scraper.PageParser {
	parsers := make(map[string]scraper.PageParser)
	register := func(sources []resource.Source, cat resource.Category) {
		for _, src := range sources {
			parsers[src.Name] = scraper.ListParser{Category: cat}
		}
	}
	register(cfg.Sources.Scholarships, resource.CategoryScholarship)
	register(cfg.Sources.Visas, resource.CategoryVisa)
	register(cfg.Sources.Jobs, resource.CategoryJob)
	return parsers
}
