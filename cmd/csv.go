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
	"encoding/csv"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/store"
)

var (
	csvInputFile   string
	csvOutputFile  string
	csvSourceLang  string
	csvTargetLang  string
	csvContentType string
	csvColumns     []int
	csvHeader      bool
	csvWorkers     int
	csvNoCache     bool
	csvResume      string
)

type csvJob struct {
	row, col int
	text     string
}

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Purify columns of a CSV file",
	Long: `Purify one or more columns in a CSV file.

By default all columns are purified. Use -l to select specific columns
(0-indexed). The flag may be repeated to select multiple columns.
Cells are processed concurrently with batch timeouts.

A checkpoint ID is printed at the start of each run. If the job is interrupted,
use --resume with that ID to skip already-purified cells.

Example:
  lexpure csv -i data.csv -o out.csv -t ar -l 1 -l 3 --header
  lexpure csv -i data.csv -o out.csv -t ar --resume cp_0d6c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if csvInputFile == csvOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		if csvWorkers < 1 {
			return fmt.Errorf("--workers must be at least 1")
		}

		f, err := os.Open(csvInputFile)
		if err != nil {
			return fmt.Errorf("failed to open input CSV: %w", err)
		}
		defer f.Close()

		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}

		if len(records) == 0 {
			return fmt.Errorf("CSV file is empty")
		}

		// Validate flags once; cells only differ in text.
		template, err := buildUnit("", csvSourceLang, csvTargetLang, csvContentType, true)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		p, err := buildPipeline(ctx, cfg, logger, pipelineOptions{noCache: csvNoCache})
		if err != nil {
			return err
		}
		defer p.Close()

		// Load or create checkpoint.
		var checkpointID string
		completedCells := make(map[string]string)

		if csvResume != "" {
			if p.db == nil {
				return fmt.Errorf("--resume requires db.path to be set")
			}
			if _, cpErr := p.db.GetCSVCheckpoint(ctx, csvResume); cpErr != nil {
				return fmt.Errorf("failed to load checkpoint: %w", cpErr)
			}
			checkpointID = csvResume
			cells, cpErr := p.db.GetCSVCells(ctx, checkpointID)
			if cpErr != nil {
				return fmt.Errorf("failed to load checkpoint cells: %w", cpErr)
			}
			completedCells = cells
			fmt.Fprintf(os.Stderr, "Resuming checkpoint %s (%d cells already done)\n", checkpointID, len(completedCells))
		} else if p.db != nil {
			checkpointID, err = p.db.CreateCSVCheckpoint(ctx, csvInputFile, csvOutputFile, template.SourceLanguage.String(), template.TargetLanguage.String())
			if err != nil {
				logger.Warn("failed to create checkpoint", "error", err)
			} else {
				fmt.Fprintf(os.Stderr, "Checkpoint ID: %s (use --resume %s to resume if interrupted)\n", checkpointID, checkpointID)
			}
		}

		// Determine which columns to purify.
		colSet := make(map[int]bool, len(csvColumns))
		for _, c := range csvColumns {
			colSet[c] = true
		}
		purifyAll := len(csvColumns) == 0

		out := make([][]string, len(records))
		var jobs []csvJob
		for rowIdx, row := range records {
			out[rowIdx] = make([]string, len(row))
			copy(out[rowIdx], row)
			if csvHeader && rowIdx == 0 {
				continue
			}

			for colIdx, cell := range row {
				if !purifyAll && !colSet[colIdx] {
					continue
				}
				if cell == "" {
					continue
				}
				if done, ok := completedCells[store.CellKey(rowIdx, colIdx)]; ok {
					out[rowIdx][colIdx] = done
					continue
				}
				jobs = append(jobs, csvJob{row: rowIdx, col: colIdx, text: cell})
			}
		}

		var fallbacks atomic.Int32
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(csvWorkers)
		for _, job := range jobs {
			g.Go(func() error {
				unit := template
				unit.RawText = job.text
				res, err := p.purifier.Purify(gctx, unit)
				if err != nil {
					return fmt.Errorf("row %d col %d: %w", job.row, job.col, err)
				}
				if res.Path == internal.Fallback {
					fallbacks.Add(1)
					logger.Warn("cell replaced by fallback", "row", job.row, "col", job.col)
				}
				// Each job owns its cell.
				out[job.row][job.col] = res.Text
				if checkpointID != "" {
					if err := p.db.SaveCSVCell(gctx, checkpointID, job.row, job.col, res); err != nil {
						logger.Warn("failed to save checkpoint cell", "row", job.row, "col", job.col, "error", err)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted: %w", err)
		}

		outFile, err := os.Create(csvOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output CSV: %w", err)
		}
		defer outFile.Close()

		writer := csv.NewWriter(outFile)
		if err := writer.WriteAll(out); err != nil {
			return fmt.Errorf("failed to write output CSV: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("failed to flush output CSV: %w", err)
		}

		// Mark checkpoint complete.
		if checkpointID != "" {
			_ = p.db.CompleteCSVCheckpoint(ctx, checkpointID)
		}

		fmt.Printf("CSV purified successfully: %s (%d cells, %d fallbacks)\n", csvOutputFile, len(jobs), fallbacks.Load())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(csvCmd)

	csvCmd.Flags().StringVarP(&csvInputFile, "input", "i", "", "Input CSV file (required)")
	csvCmd.Flags().StringVarP(&csvOutputFile, "output", "o", "", "Output CSV file (required)")
	csvCmd.Flags().StringVarP(&csvSourceLang, "source", "s", "auto", "Source language code")
	csvCmd.Flags().StringVarP(&csvTargetLang, "target", "t", "", "Target language code (required)")
	csvCmd.Flags().StringVar(&csvContentType, "type", "ui_label", "Content type of the cells")
	csvCmd.Flags().IntSliceVarP(&csvColumns, "column", "l", nil, "Column index to purify (0-indexed, repeatable; default: all columns)")
	csvCmd.Flags().BoolVar(&csvHeader, "header", false, "Leave the first row untouched")
	csvCmd.Flags().IntVarP(&csvWorkers, "workers", "w", 4, "Number of cells purified concurrently")
	csvCmd.Flags().BoolVar(&csvNoCache, "no-cache", false, "Bypass the result cache")
	csvCmd.Flags().StringVar(&csvResume, "resume", "", "Resume from checkpoint ID (printed at start of original run)")

	csvCmd.MarkFlagRequired("input")
	csvCmd.MarkFlagRequired("output")
	csvCmd.MarkFlagRequired("target")
}
