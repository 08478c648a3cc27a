/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/lexpure/internal/sanitize"
	"github.com/valpere/lexpure/internal/script"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the purified result cache",
	Long: `List, inspect, purge and clear the SQLite result cache.

Entries written under another sanitizer rule-set version are stale and
never served; purge removes them together with expired entries.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if cfg.DB.Path == "" {
			return fmt.Errorf("cache commands need a database; set db.path")
		}
		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListCache(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries in cache.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HASH\tTARGET\tPATH\tPURITY\tVERSION\tUSED\tEXPIRES\tTEXT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\t%d\t%s\t%s\n",
				e.ContentHash[:12], e.TargetLanguage, e.Path, e.PurityScore, e.RuleSetVersion,
				e.UsageCount, e.ExpiresAt.Local().Format("2006-01-02 15:04"), snippet(e.Text, 40))
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache and provider statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		version, err := currentRuleVersion()
		if err != nil {
			return err
		}
		stats, err := db.CacheStats(cmd.Context(), version)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Rule set:        %s\n", version)
		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Active entries:  %d\n", stats.ActiveEntries)
		fmt.Printf("Expired entries: %d\n", stats.ExpiredEntries)
		fmt.Printf("Stale entries:   %d\n", stats.StaleEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)

		providers, err := db.ProviderStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get provider stats: %w", err)
		}
		if len(providers) == 0 {
			return nil
		}
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tATTEMPTS\tACCEPTED\tFAILED\tAVG PURITY\tAVG LATENCY")
		for _, p := range providers {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%s\n",
				p.Provider, p.Attempts, p.Accepted, p.Failed, p.AvgScore, p.AvgLatency.Round(time.Millisecond))
		}
		return w.Flush()
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired and stale entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		version, err := currentRuleVersion()
		if err != nil {
			return err
		}
		n, err := db.PurgeCache(cmd.Context(), version)
		if err != nil {
			return fmt.Errorf("failed to purge cache: %w", err)
		}
		fmt.Printf("Purged %d entries.\n", n)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <hash> <target>",
	Short: "Delete one cache entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteCacheEntry(cmd.Context(), args[0], script.Language(args[1])); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		fmt.Printf("Deleted entry: %s/%s\n", args[0], args[1])
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearCache(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %d entries from cache.\n", n)
		return nil
	},
}

// currentRuleVersion returns the version new cache entries are written under.
func currentRuleVersion() (string, error) {
	rules, err := sanitize.DefaultRules()
	if cfg.Sanitizer.RulesFile != "" {
		rules, err = sanitize.LoadRules(cfg.Sanitizer.RulesFile)
	}
	if err != nil {
		return "", err
	}
	s, err := sanitize.New(script.NewClassifier(), rules, cfg.Sanitizer.MaxRun)
	if err != nil {
		return "", err
	}
	return s.Version(), nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
