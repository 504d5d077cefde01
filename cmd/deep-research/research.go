// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhilashpatra04/Deepresercher/internal/pipeline"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run the full research pipeline for a query",
	Long: `Research decomposes the query into sub-questions, searches arXiv and the
web for each one, critiques the findings and re-searches any gaps, then writes
a quality-scored report. The run is saved to memory so followup and later
research can build on it.

An uploaded paper (--paper) or a web page (--url) is folded into the planning
and synthesis context; the paper wins when both are given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	paperPath, _ := cmd.Flags().GetString("paper")
	pageURL, _ := cmd.Flags().GetString("url")
	outPath, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	showSteps, _ := cmd.Flags().GetBool("show-steps")

	obs, flush, err := stepObserver(cmd, showSteps)
	if err != nil {
		return err
	}
	defer flush()

	p, closeStore, err := pipeline.NewFromConfig(loadConfig(), obs)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := p.Research(cmd.Context(), pipeline.Request{
		Query:     query,
		PaperPath: paperPath,
		URL:       pageURL,
	})
	if err != nil {
		return err
	}

	return writeResult(result, outPath, format, showSteps)
}

func writeResult(result *types.ResearchResult, outPath, format string, showSteps bool) error {
	var rendered []byte
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		rendered = append(data, '\n')
	case "text", "":
		rendered = []byte(formatTextReport(result, showSteps))
	default:
		return fmt.Errorf("unsupported format %q: use text or json", format)
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, rendered, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", outPath)
		return nil
	}

	_, err := os.Stdout.Write(rendered)
	return err
}

func formatTextReport(result *types.ResearchResult, showSteps bool) string {
	var b strings.Builder
	b.WriteString(result.Report)
	b.WriteString("\n\n---\n")

	verdict := "below threshold"
	if result.Quality.Pass {
		verdict = "pass"
	}
	fmt.Fprintf(&b, "Quality: %.2f (%s) | Evidence cited: %d", result.Quality.Overall, verdict, result.EvidenceCited)
	if result.MemoryID != "" {
		fmt.Fprintf(&b, " | Saved as %s", result.MemoryID)
	}
	fmt.Fprintf(&b, "\nCompleted in %s\n", result.TotalDuration.Round(time.Millisecond))

	if showSteps {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			fmt.Fprintf(&b, "  %-26s  %-6s  %-10s  %s\n",
				s.Name, s.Paradigm, s.Status, s.Duration.Round(time.Millisecond))
		}
	}
	return b.String()
}

func init() {
	researchCmd.Flags().String("paper", "", "local PDF to fold into the research context")
	researchCmd.Flags().String("url", "", "web page to fold into the research context")
	researchCmd.Flags().String("out", "", "write the report to a file instead of stdout")
	researchCmd.Flags().String("format", "text", "output format: text or json")
	researchCmd.Flags().Bool("show-steps", false, "print step progress and the step table")

	rootCmd.AddCommand(researchCmd)
}
