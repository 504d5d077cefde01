// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/internal/pipeline"
	"github.com/abhilashpatra04/Deepresercher/internal/retrieval"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline [query]",
	Short: "Run the single-shot comparison path",
	Long: `Baseline runs one arXiv search and one summarization call with no
planning, iteration, critique, or memory. It exists to compare the full
pipeline's output against a plain retrieve-and-summarize run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBaseline,
}

func runBaseline(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	cfg := loadConfig()

	gw, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}
	obs, flush, err := stepObserver(cmd, false)
	if err != nil {
		return err
	}
	defer flush()

	b := pipeline.NewBaseline(gw, retrieval.NewArxivTool(cfg.Search), obs)
	result, err := b.Research(cmd.Context(), query)
	if err != nil {
		return err
	}

	fmt.Println(result.Report)
	fmt.Printf("\nFound %d papers in %s\n", result.EvidenceFound, result.Duration.Round(time.Millisecond))
	return nil
}

func init() {
	rootCmd.AddCommand(baselineCmd)
}
