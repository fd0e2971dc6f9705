// Package main provides the docsctl CLI for managing and querying the
// RestKit documentation index.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/restkit/restkit-mcp/internal/app"
	"github.com/restkit/restkit-mcp/internal/config"
	ghclient "github.com/restkit/restkit-mcp/internal/github"
	"github.com/restkit/restkit-mcp/internal/logging"
	"github.com/restkit/restkit-mcp/internal/scaffold"
)

var (
	configPath string
	category   string
	limit      int

	genVariant   string
	genModel     string
	genRules     []string
	genURIKey    string
	genNamespace string
	genForce     bool
	genDryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "docsctl",
	Short: "RestKit documentation index and scaffolding tool",
	Long:  "CLI for indexing and searching RestKit documentation and generating RestKit artifacts.",
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the documentation index",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		paths := application.Indexer.Discover()
		stats, err := application.Indexer.IndexDocuments(cmd.Context(), paths)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}

		fmt.Printf("Indexed %d documents (%d terms) in %s\n",
			stats.TotalDocs, stats.TotalTerms, stats.Duration.Round(time.Millisecond))
		if stats.FromCache {
			fmt.Println("Served from cache (corpus unchanged).")
		}
		if len(stats.SkippedFiles) > 0 {
			fmt.Printf("Skipped %d unreadable files.\n", len(stats.SkippedFiles))
		}

		keys := make([]string, 0, len(stats.Categories))
		for key := range stats.Categories {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("  %-16s %d\n", key, stats.Categories[key])
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the documentation index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		if _, err := application.Indexer.IndexDocuments(cmd.Context(), application.Indexer.Discover()); err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}

		query := ""
		for i, arg := range args {
			if i > 0 {
				query += " "
			}
			query += arg
		}

		results := application.Indexer.Search(query, category, limit)
		if len(results) == 0 {
			fmt.Println("No results. Run `docsctl categories` to see what is available.")
			return nil
		}
		for i, result := range results {
			fmt.Printf("%d. %s (%.2f)\n   %s\n", i+1, result.Document.Title, result.Score, result.Document.FilePath)
			if result.Snippet != "" {
				fmt.Printf("   %s\n", result.Snippet)
			}
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List documentation categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		if _, err := application.Indexer.IndexDocuments(cmd.Context(), application.Indexer.Discover()); err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}

		categories := application.Indexer.Categories()
		keys := make([]string, 0, len(categories))
		for key := range categories {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			info := categories[key]
			fmt.Printf("%-16s %s (%d docs)\n", key, info.Name, info.Count)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the documentation corpus from GitHub",
	Long: `Fetches all markdown documentation from the configured GitHub
repository into the local docs root, then flushes the index cache so the
next query rebuilds against the fresh corpus.

Environment variables:
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		client, err := ghclient.NewClient(application.Cfg.Sync)
		if err != nil {
			return fmt.Errorf("creating GitHub client: %w", err)
		}
		fetcher := ghclient.NewFetcher(client, application.Cfg.Sync)

		result, err := fetcher.SyncTo(cmd.Context(), application.Cfg.Docs.PrimaryPath)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		fmt.Println("Sync complete!")
		fmt.Printf("  Documents: %d/%d\n", result.WrittenDocs, result.TotalDocs)
		fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
		fmt.Printf("  Commit: %s\n", result.CommitSHA)

		if len(result.FailedDocs) > 0 {
			fmt.Println("Failed documents:")
			for _, failed := range result.FailedDocs {
				fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
			}
		}

		application.Store.Flush(cmd.Context())
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <kind> <name>",
	Short: "Generate a RestKit artifact (repository, action, getter, filter)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := scaffold.ParseKind(args[0])
		if err != nil {
			return err
		}

		application, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		report, err := application.Generator.Generate(scaffold.Request{
			Kind:      kind,
			Name:      args[1],
			Variant:   genVariant,
			Model:     genModel,
			Rules:     genRules,
			URIKey:    genURIKey,
			Namespace: genNamespace,
			Force:     genForce,
			DryRun:    genDryRun,
		})
		if err != nil {
			return err
		}

		if genDryRun {
			fmt.Printf("Would generate %s at %s:\n\n%s", report.Class, report.Path, report.Source)
			return nil
		}
		fmt.Printf("Generated %s at %s\n\nNext steps:\n", report.Class, report.Path)
		for _, step := range report.NextSteps {
			fmt.Printf("  - %s\n", step)
		}
		return nil
	},
}

func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return app.New(ctx, cfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("RESTKIT_CONFIG"), "path to config file")

	searchCmd.Flags().StringVar(&category, "category", "", "restrict to a category")
	searchCmd.Flags().IntVar(&limit, "limit", 0, "maximum results (0 = default)")

	generateCmd.Flags().StringVar(&genVariant, "variant", "", "artifact subtype")
	generateCmd.Flags().StringVar(&genModel, "model", "", "associated model class")
	generateCmd.Flags().StringArrayVar(&genRules, "rule", nil, "validation rule attribute:rule1|rule2 (repeatable)")
	generateCmd.Flags().StringVar(&genURIKey, "uri-key", "", "custom URI key")
	generateCmd.Flags().StringVar(&genNamespace, "namespace", "", "base namespace override")
	generateCmd.Flags().BoolVar(&genForce, "force", false, "overwrite an existing file")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print the source without writing")

	rootCmd.AddCommand(indexCmd, searchCmd, categoriesCmd, syncCmd, generateCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
