package models

type Participant struct {
	PlayerID   string `json:"player_id" db:"player_id"`
	PlayerName string `json:"player_name" db:"player_name"`
	SkillLevel string `json:"skill_level,omitempty" db:"skill_level"`
	// Seed is 1-based; 0 means unseeded.
	Seed int `json:"seed,omitempty" db:"seed"`
	// PartnerID присутствует только в парных разрядах. Взаимность ссылок
	// обеспечивается слоем хранения, но проверяется при сборке команд.
	PartnerID *string `json:"partner_id,omitempty" db:"partner_id"`
	// TeamName overrides the derived "A / B" display name when set.
	TeamName *string `json:"team_name,omitempty" db:"team_name"`
}

// Seeded reports whether the participant holds a positive seed.
func (p Participant) Seeded() bool {
	return p.Seed >= 1
}
