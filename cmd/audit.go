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
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/auditor"
	"github.com/valpere/lexpure/internal/script"
	"github.com/valpere/lexpure/internal/session"
)

var (
	auditLang        string
	auditOnce        bool
	auditContentType string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Sweep stored fragments and repair impure ones",
	Long: `Manage the fragment store and run the output auditor over it.

The auditor rescans every fragment in a language. Fragments below the
purity threshold of their content type are sanitized or, failing that,
replaced by a fallback template. A fragment is only rewritten when the
replacement is purer, so repeated sweeps change nothing.`,
}

var auditRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Audit fragments once or on the configured interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, err := parseAuditLang()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		p, err := buildPipeline(ctx, cfg, logger, pipelineOptions{noCache: true})
		if err != nil {
			return err
		}
		defer p.Close()
		db, err := p.requireStore()
		if err != nil {
			return err
		}

		unsubscribe := p.registry.Subscribe(func(e session.Event) {
			if e.Kind == session.EventFragmentFixed {
				fmt.Printf("fixed %s (purity %.1f%%)\n", e.FragmentID, e.Score)
			}
		})
		defer unsubscribe()

		if auditOnce {
			n, err := p.auditor.AuditAndFix(ctx, db, lang)
			if err != nil {
				return err
			}
			fmt.Printf("%d fragments changed\n", n)
			return nil
		}

		fmt.Fprintf(os.Stderr, "Auditing %s fragments every %s (Ctrl+C to stop)\n", lang, cfg.Audit.Interval)
		p.auditor.Run(ctx, db, lang, cfg.Audit.Interval)
		return nil
	},
}

var auditImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import fragments from a text file, one per non-empty line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, err := parseAuditLang()
		if err != nil {
			return err
		}
		ct, err := internal.ParseContentType(auditContentType)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		db, err := openStore(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		n := 0
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if _, err := db.PutFragment(ctx, auditor.Fragment{Language: lang, ContentType: ct, Text: line}); err != nil {
				return err
			}
			n++
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		fmt.Printf("Imported %d fragments\n", n)
		return nil
	},
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored fragments with their purity",
	RunE: func(cmd *cobra.Command, args []string) error {
		var lang script.Language
		if auditLang != "" {
			l, err := parseAuditLang()
			if err != nil {
				return err
			}
			lang = l
		}

		db, err := openStore(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		fragments, err := db.Fragments(cmd.Context(), lang)
		if err != nil {
			return fmt.Errorf("failed to list fragments: %w", err)
		}
		if len(fragments) == 0 {
			fmt.Println("No fragments stored.")
			return nil
		}

		cl := script.NewClassifier()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLANG\tTYPE\tPURITY\tTEXT")
		for _, f := range fragments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\n",
				f.ID, f.Language, f.ContentType, cl.Purity(f.Text, f.Language), snippet(f.Text, 40))
		}
		return w.Flush()
	},
}

func parseAuditLang() (script.Language, error) {
	lang, err := script.ParseLanguage(auditLang)
	if err != nil {
		return "", err
	}
	if lang == script.Unknown {
		return "", fmt.Errorf("--lang is required")
	}
	return lang, nil
}

// snippet shortens s to at most n runes for table output.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.PersistentFlags().StringVar(&auditLang, "lang", "", "Fragment language")

	auditRunCmd.Flags().BoolVar(&auditOnce, "once", false, "Run a single sweep and exit")
	auditImportCmd.Flags().StringVar(&auditContentType, "type", "chat_message", "Content type of imported fragments")

	auditCmd.AddCommand(auditRunCmd)
	auditCmd.AddCommand(auditImportCmd)
	auditCmd.AddCommand(auditListCmd)
}
