package room

// Mode names the backend a room store is running on.
type Mode string

const (
	ModeRedis  Mode = "redis"
	ModeSQLite Mode = "sqlite"
	ModeMemory Mode = "memory"
)

// Durable reports whether rooms survive a process restart in this mode.
func (m Mode) Durable() bool {
	return m == ModeRedis || m == ModeSQLite
}

func (m Mode) Valid() bool {
	switch m {
	case ModeRedis, ModeSQLite, ModeMemory:
		return true
	}
	return false
}

type Status struct {
	Mode           Mode   `json:"mode"`
	Durable        bool   `json:"durable"`
	RequireDurable bool   `json:"requireDurable"`
	Available      bool   `json:"available"`
	Provider       string `json:"provider"`
}
