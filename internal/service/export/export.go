package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/pkg/database"
)

type RegistrationRepository interface {
	ListExportRows(ctx context.Context) ([]domain.ExportRow, error)
}

// ExportService renders point-in-time reports over the ledger. Read only.
type ExportService struct {
	regRepo   RegistrationRepository
	txManager database.TransactionManagerInterface
	lg        *slog.Logger
}

func NewExportService(regRepo RegistrationRepository,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *ExportService {
	return &ExportService{
		regRepo:   regRepo,
		txManager: txManager,
		lg:        lg,
	}
}

// Snapshot reads the full registration table inside one transaction so the
// report is internally consistent even while registrations land.
func (s *ExportService) Snapshot(ctx context.Context) ([]domain.ExportRow, error) {
	var rows []domain.ExportRow
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		rows, err = s.regRepo.ListExportRows(txCtx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot registrations: %w", err)
	}

	s.lg.Info("registrations snapshot taken", slog.Int("rows", len(rows)))
	return rows, nil
}

var csvHeader = []string{"S.No", "Team ID", "Team Name", "Team Leader", "Challenge ID", "Challenge Title", "Registered At"}

// WriteCSV streams a snapshot as CSV, one line per registration in commit
// order.
func (s *ExportService) WriteCSV(w io.Writer, rows []domain.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.SerialNo),
			row.TeamID,
			row.TeamName,
			row.TeamLeader,
			row.ChallengeID,
			row.ChallengeTitle,
			row.RegisteredAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
