package models

type Worker struct {
	BaseUUIDModel
	Name     string `gorm:"type:text;not null"              json:"name"`
	Active   bool   `gorm:"type:bool;not null"              json:"active"`
	Position int    `gorm:"not null;default:0"              json:"position"`
}
