package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caucus-labs/caucus/internal/analysis"
	"github.com/caucus-labs/caucus/internal/session"
)

func sampleTurns() []session.Turn {
	sentiment := -0.3
	return []session.Turn{
		{
			StudyID:       "study_9",
			SessionID:     "session_9",
			ParticipantID: "alice",
			Round:         1,
			Question:      "What frustrates you about invoicing?",
			Answer:        "Chasing late payments takes hours every week.",
			Confidence:    0.75,
			Tags:          []string{"frustration", "time_management"},
			Sentiment:     &sentiment,
			Timestamp:     time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			StudyID:          "study_9",
			SessionID:        "session_9",
			ParticipantID:    "bob",
			Round:            1,
			Question:         "What frustrates you about invoicing?",
			Answer:           "Honestly it is fine for me.",
			Confidence:       0.7,
			Tags:             []string{"general"},
			FollowUpQuestion: "How long does a typical invoice take?",
			FollowUpAnswer:   "Maybe ten minutes.",
			Timestamp:        time.Date(2026, 8, 1, 9, 31, 0, 0, time.UTC),
		},
	}
}

func TestWriteAndLoadTurnsJSONL(t *testing.T) {
	e := New(t.TempDir())

	path, err := e.WriteTurnsJSONL("study_9", "session_9", sampleTurns())
	if err != nil {
		t.Fatalf("WriteTurnsJSONL failed: %v", err)
	}
	if filepath.Base(path) != "session_9_turns.jsonl" {
		t.Errorf("unexpected file name %q", path)
	}

	turns, err := LoadTurnsJSONL(path)
	if err != nil {
		t.Fatalf("LoadTurnsJSONL failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Sentiment == nil || *turns[0].Sentiment != -0.3 {
		t.Errorf("sentiment did not round-trip: %v", turns[0].Sentiment)
	}
	if turns[1].FollowUpAnswer != "Maybe ten minutes." {
		t.Errorf("follow-up did not round-trip: %q", turns[1].FollowUpAnswer)
	}
}

func TestLoadTurnsJSONL_RejectsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.jsonl")

	cases := []struct {
		name string
		line string
	}{
		{"not json", "this is not json"},
		{"missing participant", `{"answer": "hello"}`},
		{"missing answer", `{"participant_id": "alice"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(tc.line+"\n"), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadTurnsJSONL(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadTurnsJSONL_SkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaps.jsonl")
	content := `{"participant_id": "alice", "answer": "first"}

{"participant_id": "bob", "answer": "second"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	turns, err := LoadTurnsJSONL(path)
	if err != nil {
		t.Fatalf("LoadTurnsJSONL failed: %v", err)
	}
	if len(turns) != 2 {
		t.Errorf("expected 2 turns, got %d", len(turns))
	}
}

func TestWriteTurnsCSV(t *testing.T) {
	e := New(t.TempDir())

	path, err := e.WriteTurnsCSV("study_9", "session_9", sampleTurns())
	if err != nil {
		t.Fatalf("WriteTurnsCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "study_id" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][7] != "frustration;time_management" {
		t.Errorf("tags cell = %q", rows[1][7])
	}
	if rows[1][10] != "-0.3" {
		t.Errorf("sentiment cell = %q", rows[1][10])
	}
	if rows[2][10] != "" {
		t.Errorf("expected empty sentiment cell, got %q", rows[2][10])
	}
	if !strings.HasPrefix(rows[1][12], "2026-08-01T09:30:00") {
		t.Errorf("timestamp cell = %q", rows[1][12])
	}
}

func TestWriteReport(t *testing.T) {
	e := New(t.TempDir())

	report := &analysis.Report{
		StudyID:   "study_9",
		SessionID: "session_9",
		Overview:  analysis.Overview{TotalTurns: 2, Participants: 2, Rounds: 1},
	}
	path, err := e.WriteReport(report)
	if err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"total_turns": 2`) {
		t.Errorf("report body missing overview: %s", body)
	}
}
