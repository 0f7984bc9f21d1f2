package models

// DoublesTeam представляет производную сущность: собирается из пары участников при
// каждом изменении списка. Не хранится в БД и не мутируется напрямую:
// изменения сидов проходят через поля обоих участников.
type DoublesTeam struct {
	TeamID   string      `json:"team_id"`
	Player1  Participant `json:"player1"`
	Player2  Participant `json:"player2"`
	TeamName string      `json:"team_name"`
	// Seed equals both players' seed once assigned, 0 while unseeded.
	Seed int `json:"seed,omitempty"`
}

// HasPlayer reports whether the team contains the given player.
func (t DoublesTeam) HasPlayer(playerID string) bool {
	return t.Player1.PlayerID == playerID || t.Player2.PlayerID == playerID
}
