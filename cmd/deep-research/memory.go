// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/abhilashpatra04/Deepresercher/internal/memory"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect stored research records (list, show, export)",
	Long: `Memory manages the SQLite store of past research runs. Every completed
research run is saved as an append-only record; recall surfaces related
records to later runs automatically. Use subcommands to list records, show
one in full, or export to JSON or YAML.`,
}

// --- list subcommand ---

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored research records, newest first",
	RunE:  runMemoryList,
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	store, err := openMemory()
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case "table", "":
		formatRecordTable(summaries)
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use table or json", format)
	}
}

func formatRecordTable(summaries []types.RecordSummary) {
	if len(summaries) == 0 {
		fmt.Println("No records found.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-33s  %-16s  %-40s  %s\n", "ID", "Created", "Query", "Keywords")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, s := range summaries {
		query := s.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		keywords := strings.Join(s.Keywords, ", ")
		if len(keywords) > 30 {
			keywords = keywords[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-33s  %-16s  %-40s  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04"), query, keywords)
	}

	fmt.Fprintf(os.Stdout, "\n%d records\n", len(summaries))
}

// --- show subcommand ---

var memoryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored record in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryShow,
}

func runMemoryShow(cmd *cobra.Command, args []string) error {
	store, err := openMemory()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "ID:        %s\n", rec.ID)
	fmt.Fprintf(os.Stdout, "Query:     %s\n", rec.Query)
	fmt.Fprintf(os.Stdout, "Created:   %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(os.Stdout, "Quality:   %.2f\n", rec.Metadata.QualityScore)
	fmt.Fprintf(os.Stdout, "Evidence:  %d\n", rec.Metadata.TotalEvidence)
	fmt.Fprintf(os.Stdout, "Keywords:  %s\n", strings.Join(rec.Keywords, ", "))
	fmt.Fprintf(os.Stdout, "\n%s\n", rec.Findings)
	return nil
}

// --- export subcommand ---

var memoryExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export one record, or the whole store, to JSON or YAML",
	Long: `Export writes a single record (by ID) or every stored record to stdout
or --out. JSON is the default; use --format yaml for YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMemoryExport,
}

func runMemoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	store, err := openMemory()
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if len(args) == 1 {
		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		err = encodeRecord(w, rec, format)
		if err != nil {
			return err
		}
	} else {
		switch format {
		case "json", "":
			err = store.ExportJSON(cmd.Context(), w)
		case "yaml":
			err = store.ExportYAML(cmd.Context(), w)
		default:
			err = fmt.Errorf("unsupported format %q: use json or yaml", format)
		}
		if err != nil {
			return err
		}
	}

	if outPath != "" {
		fmt.Printf("Exported to %s\n", outPath)
	}
	return nil
}

func encodeRecord(w io.Writer, rec types.MemoryRecord, format string) error {
	switch format {
	case "json", "":
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case "yaml":
		data, err := yaml.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
}

// --- shared helpers ---

func openMemory() (*memory.Store, error) {
	return memory.Open(loadConfig().Memory.Path)
}

func init() {
	memoryListCmd.Flags().String("format", "table", "output format: table or json")

	memoryExportCmd.Flags().String("format", "json", "export format: json or yaml")
	memoryExportCmd.Flags().String("out", "", "write the export to a file instead of stdout")

	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryExportCmd)

	rootCmd.AddCommand(memoryCmd)
}
