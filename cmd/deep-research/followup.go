// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhilashpatra04/Deepresercher/internal/llm"
	"github.com/abhilashpatra04/Deepresercher/internal/memory"
	"github.com/abhilashpatra04/Deepresercher/internal/pipeline"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

var followupCmd = &cobra.Command{
	Use:   "followup <record-id> [question]",
	Short: "Ask a question against a stored research report",
	Long: `Followup answers a question using the findings of a past run, loaded
from memory by record ID. The answer stays grounded in what that run found;
no new search happens. Use "memory list" to find record IDs.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runFollowup,
}

func runFollowup(cmd *cobra.Command, args []string) error {
	id := args[0]
	question := strings.Join(args[1:], " ")
	cfg := loadConfig()

	store, err := memory.Open(cfg.Memory.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	gw, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Deps{Gateway: gw}, cfg, nil)
	answer, err := p.Followup(cmd.Context(), question, &types.ResearchResult{Report: rec.Findings})
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

func init() {
	rootCmd.AddCommand(followupCmd)
}
