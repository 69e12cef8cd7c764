package domain

// Team is a roster entry provisioned at deploy time. Teams are immutable for
// the lifetime of the event; the service never creates or deletes one.
type Team struct {
	TeamID     string `json:"team_id"`
	TeamName   string `json:"team_name"`
	TeamLeader string `json:"team_leader"`
	RosterSize int    `json:"roster_size"`
}
