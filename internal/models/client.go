package models

import "time"

// Client entity (maître d'ouvrage ou donneur d'ordre)
type Client struct {
	ID            uint   `gorm:"primaryKey"`
	Nom           string `gorm:"not null;index"` // Raison sociale ou nom
	NomCommercial string `gorm:"index"`
	Contact       string // Nom du contact principal
	Telephone     string
	Email         string
	Adresse       string
	Ville         string
	Pays          string
	RCCM          string `gorm:"index"` // registre du commerce
	CompteContrib string // numéro de compte contribuable
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
