package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kesarsunil/problemstatment/internal/domain"
)

type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubRegistrationRepo struct {
	rows []domain.ExportRow
}

func (s *stubRegistrationRepo) ListExportRows(context.Context) ([]domain.ExportRow, error) {
	return s.rows, nil
}

func TestSnapshotPreservesCommitOrder(t *testing.T) {
	base := time.Date(2025, 9, 12, 10, 0, 0, 0, time.UTC)
	repo := &stubRegistrationRepo{rows: []domain.ExportRow{
		{SerialNo: 1, TeamID: "T002", TeamName: "Team salaar", ChallengeID: "ps1", RegisteredAt: base},
		{SerialNo: 2, TeamID: "T001", TeamName: "Team Localhost", ChallengeID: "ps3", RegisteredAt: base.Add(time.Minute)},
	}}
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewExportService(repo, passthroughTxManager{}, lg)

	rows, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].TeamID != "T002" || rows[1].TeamID != "T001" {
		t.Fatalf("rows out of commit order: %v", rows)
	}
}

func TestWriteCSV(t *testing.T) {
	repo := &stubRegistrationRepo{}
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewExportService(repo, passthroughTxManager{}, lg)

	rows := []domain.ExportRow{
		{
			SerialNo:       1,
			TeamID:         "T001",
			TeamName:       "Team Localhost",
			TeamLeader:     "Sivaiahgari Chandra Kanth Reddy",
			ChallengeID:    "ps1",
			ChallengeTitle: "Smart Traffic Management System",
			RegisteredAt:   time.Date(2025, 9, 12, 10, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := svc.WriteCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "S.No,Team ID,") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "T001") || !strings.Contains(lines[1], "2025-09-12T10:30:00Z") {
		t.Fatalf("unexpected row: %s", lines[1])
	}
}
