package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kesarsunil/problemstatment/internal/domain"
)

// LoadFile parses the deploy-time roster CSV. Expected columns:
// team_id,team_name,team_leader,roster_size — with a header row.
func LoadFile(path string) ([]domain.Team, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func Parse(r io.Reader) ([]domain.Team, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("roster header has %d columns, want at least 3", len(header))
	}

	var teams []domain.Team
	seen := make(map[string]struct{})
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster row: %w", err)
		}

		team := domain.Team{
			TeamID:     strings.TrimSpace(record[0]),
			TeamName:   strings.TrimSpace(record[1]),
			TeamLeader: strings.TrimSpace(record[2]),
		}
		if team.TeamID == "" || team.TeamName == "" {
			return nil, fmt.Errorf("roster row missing team id or name: %v", record)
		}
		if _, dup := seen[team.TeamID]; dup {
			return nil, fmt.Errorf("duplicate team id %s in roster", team.TeamID)
		}
		seen[team.TeamID] = struct{}{}

		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			size, err := strconv.Atoi(strings.TrimSpace(record[3]))
			if err != nil {
				return nil, fmt.Errorf("bad roster_size for team %s: %w", team.TeamID, err)
			}
			team.RosterSize = size
		}

		teams = append(teams, team)
	}

	return teams, nil
}
