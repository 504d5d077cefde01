// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory persists completed research runs so later runs can
// recall and build on them. Records are append-only; recall is keyword
// overlap against the stored keyword sets, boosted when the new query
// shares words with a past query.
// Implements: prd006-memory (R1-R5);
//
//	docs/ARCHITECTURE § Memory.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// ErrNotFound is returned when a record id is not in the store.
var ErrNotFound = errors.New("memory: record not found")

// defaultRecallResults bounds recall when the caller passes no limit.
const defaultRecallResults = 3

// Store manages the research memory SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the memory database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			findings TEXT NOT NULL,
			keywords TEXT NOT NULL,
			quality_score REAL NOT NULL DEFAULT 0,
			sub_questions TEXT NOT NULL DEFAULT '[]',
			total_evidence INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			paper_id TEXT,
			PRIMARY KEY (record_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// NewID returns a unique record id carrying its creation time. The
// random suffix keeps two runs in the same second from colliding.
func NewID(now time.Time) string {
	return fmt.Sprintf("research_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
}

// Save stores one research record and its evidence references in a
// single transaction. When rec.Keywords is empty the keyword set is
// extracted from the query and findings.
func (s *Store) Save(ctx context.Context, rec types.MemoryRecord) error {
	if rec.ID == "" || strings.TrimSpace(rec.Query) == "" || strings.TrimSpace(rec.Findings) == "" {
		return errors.New("memory: record needs id, query and findings")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if len(rec.Keywords) == 0 {
		rec.Keywords = ExtractKeywords(rec.Query, rec.Findings)
	}

	keywordsJSON, err := json.Marshal(rec.Keywords)
	if err != nil {
		return fmt.Errorf("marshaling keywords: %w", err)
	}
	subQuestionsJSON, err := json.Marshal(rec.Metadata.SubQuestions)
	if err != nil {
		return fmt.Errorf("marshaling sub-questions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, query, findings, keywords, quality_score, sub_questions, total_evidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, rec.Findings, string(keywordsJSON),
		rec.Metadata.QualityScore, string(subQuestionsJSON), rec.Metadata.TotalEvidence,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	for i, ev := range rec.Evidence {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO evidence (record_id, position, title, paper_id) VALUES (?, ?, ?, ?)`,
			rec.ID, i, ev.Title, ev.ID,
		); err != nil {
			return fmt.Errorf("inserting evidence: %w", err)
		}
	}

	return tx.Commit()
}

// Recall returns up to max past records relevant to query, most relevant
// first. A record scores one point per shared keyword and two per word
// shared with its original query; records scoring zero are omitted.
func (s *Store) Recall(ctx context.Context, query string, max int) ([]types.ScoredRecord, error) {
	if max <= 0 {
		max = defaultRecallResults
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, query, keywords FROM records`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	queryWords := wordSet(strings.ToLower(query))

	type candidate struct {
		id    string
		score int
	}
	var candidates []candidate

	for rows.Next() {
		var id, pastQuery, keywordsJSON string
		if err := rows.Scan(&id, &pastQuery, &keywordsJSON); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var keywords []string
		if err := json.Unmarshal([]byte(keywordsJSON), &keywords); err != nil {
			return nil, fmt.Errorf("parsing keywords for %s: %w", id, err)
		}

		keywordSet := make(map[string]struct{}, len(keywords))
		for _, k := range keywords {
			keywordSet[k] = struct{}{}
		}

		score := overlap(queryWords, keywordSet) + 2*overlap(queryWords, wordSet(strings.ToLower(pastQuery)))
		if score > 0 {
			candidates = append(candidates, candidate{id: id, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id > candidates[j].id
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	results := make([]types.ScoredRecord, 0, len(candidates))
	for _, c := range candidates {
		rec, err := s.Get(ctx, c.id)
		if err != nil {
			return nil, err
		}
		results = append(results, types.ScoredRecord{MemoryRecord: rec, RelevanceScore: c.score})
	}
	return results, nil
}

// Get loads one record with its evidence references.
func (s *Store) Get(ctx context.Context, id string) (types.MemoryRecord, error) {
	var (
		rec              types.MemoryRecord
		keywordsJSON     string
		subQuestionsJSON string
		createdAt        string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, findings, keywords, quality_score, sub_questions, total_evidence, created_at
		 FROM records WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Query, &rec.Findings, &keywordsJSON,
		&rec.Metadata.QualityScore, &subQuestionsJSON, &rec.Metadata.TotalEvidence, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.MemoryRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.MemoryRecord{}, fmt.Errorf("loading record %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(keywordsJSON), &rec.Keywords); err != nil {
		return types.MemoryRecord{}, fmt.Errorf("parsing keywords for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(subQuestionsJSON), &rec.Metadata.SubQuestions); err != nil {
		return types.MemoryRecord{}, fmt.Errorf("parsing sub-questions for %s: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return types.MemoryRecord{}, fmt.Errorf("parsing created_at for %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, paper_id FROM evidence WHERE record_id = ? ORDER BY position`, id)
	if err != nil {
		return types.MemoryRecord{}, fmt.Errorf("querying evidence for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref types.EvidenceRef
		if err := rows.Scan(&ref.Title, &ref.ID); err != nil {
			return types.MemoryRecord{}, fmt.Errorf("scanning evidence for %s: %w", id, err)
		}
		rec.Evidence = append(rec.Evidence, ref)
	}
	if err := rows.Err(); err != nil {
		return types.MemoryRecord{}, fmt.Errorf("iterating evidence for %s: %w", id, err)
	}

	return rec, nil
}

// List returns a summary of every record, newest first.
func (s *Store) List(ctx context.Context) ([]types.RecordSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, findings, keywords, created_at FROM records ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var summaries []types.RecordSummary
	for rows.Next() {
		var (
			sum          types.RecordSummary
			findings     string
			keywordsJSON string
			createdAt    string
		)
		if err := rows.Scan(&sum.ID, &sum.Query, &findings, &keywordsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &sum.Keywords); err != nil {
			return nil, fmt.Errorf("parsing keywords for %s: %w", sum.ID, err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at for %s: %w", sum.ID, err)
		}
		if len(findings) > 200 {
			findings = findings[:200]
		}
		sum.Summary = findings
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// ExportYAML writes every record to w as a YAML document, newest first.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	recs, err := s.allRecords(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes every record to w as indented JSON, newest first.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	recs, err := s.allRecords(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func (s *Store) allRecords(ctx context.Context) ([]types.MemoryRecord, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]types.MemoryRecord, 0, len(summaries))
	for _, sum := range summaries {
		rec, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
