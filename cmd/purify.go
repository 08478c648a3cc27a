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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/auditor"
	"github.com/valpere/lexpure/internal/script"
	"github.com/valpere/lexpure/internal/session"
)

var (
	inputFile    string
	outputFile   string
	inputText    string
	sourceLang   string
	targetLang   string
	contentType  string
	batchMode    bool
	jsonOutput   bool
	noCache      bool
	saveFragment bool
)

var purifyCmd = &cobra.Command{
	Use:   "purify",
	Short: "Purify text into a single target language",
	Long: `Purify text into a single target language.

The text is translated by the configured providers in order until one
output passes the purity gate. Failing that, the best output is sanitized
and, if it still fails, replaced by a fallback template matching the
topic of the text.

Content types set the purity threshold:
  - chat_message     (default)
  - legal_document   long texts are split into chunks
  - ui_label         strictest

Examples:
  lexpure purify --text "Le témoin a comparu." -s fr -t ar
  lexpure purify -i judgment.txt -o judgment.ar.txt -t ar --type legal_document --batch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		if (inputFile == "") == (inputText == "") {
			return fmt.Errorf("exactly one of --input or --text is required")
		}

		text := inputText
		if inputFile != "" {
			data, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			text = string(data)
		}

		unit, err := buildUnit(text, sourceLang, targetLang, contentType, batchMode)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		p, err := buildPipeline(ctx, cfg, logger, pipelineOptions{noCache: noCache})
		if err != nil {
			return err
		}
		defer p.Close()

		sess := session.New(p.registry, unit.TargetLanguage, os.Getenv("USER"))
		defer sess.Close()
		ctx = session.NewContext(ctx, sess)

		res, err := p.purifier.Purify(ctx, unit)
		if err != nil {
			return err
		}

		if saveFragment {
			db, err := p.requireStore()
			if err != nil {
				return err
			}
			id, err := db.PutFragment(ctx, auditor.Fragment{Language: unit.TargetLanguage, ContentType: unit.ContentType, Text: res.Text})
			if err != nil {
				return err
			}
			logger.Info("saved fragment", "id", id)
		}

		out := []byte(res.Text)
		if jsonOutput {
			out, err = json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			out = append(out, '\n')
		}

		if outputFile == "" {
			_, err = os.Stdout.Write(out)
			if err == nil && !jsonOutput {
				fmt.Println()
			}
			return err
		}
		if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(outputFile, out, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Purified to %s via %s (purity %.1f%%)\n", unit.TargetLanguage, res.Path, res.PurityScore)
		return nil
	},
}

// buildUnit validates command-line values into a content unit.
func buildUnit(text, source, target, ct string, batch bool) (internal.ContentUnit, error) {
	src, err := script.ParseLanguage(source)
	if err != nil {
		return internal.ContentUnit{}, fmt.Errorf("source: %w", err)
	}
	tgt, err := script.ParseLanguage(target)
	if err != nil {
		return internal.ContentUnit{}, fmt.Errorf("target: %w", err)
	}
	if tgt == script.Unknown {
		return internal.ContentUnit{}, errors.New("target language is required")
	}
	typ, err := internal.ParseContentType(ct)
	if err != nil {
		return internal.ContentUnit{}, err
	}
	priority := internal.Interactive
	if batch {
		priority = internal.Batch
	}
	return internal.ContentUnit{
		RawText:        text,
		SourceLanguage: src,
		TargetLanguage: tgt,
		ContentType:    typ,
		Priority:       priority,
	}, nil
}

func init() {
	rootCmd.AddCommand(purifyCmd)

	purifyCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to purify")
	purifyCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default stdout)")
	purifyCmd.Flags().StringVar(&inputText, "text", "", "Text to purify")
	purifyCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code (auto when unknown)")
	purifyCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	purifyCmd.Flags().StringVar(&contentType, "type", "chat_message", "Content type: chat_message, legal_document, ui_label")
	purifyCmd.Flags().BoolVar(&batchMode, "batch", false, "Use batch timeouts instead of interactive ones")
	purifyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")
	purifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache")
	purifyCmd.Flags().BoolVar(&saveFragment, "save", false, "Save the result as a fragment for later audits")

	purifyCmd.MarkFlagRequired("target")
}
