package models

import (
	"time"

	"gorm.io/gorm"
)

// DQE lifecycle statuses
const (
	DQEStatusDraft     = "draft"
	DQEStatusInReview  = "in_review"
	DQEStatusValidated = "validated"
	DQEStatusRejected  = "rejected"
	DQEStatusArchived  = "archived"
)

// DQE (Devis Quantitatif Estimatif) : document d'estimation structuré en
// Lots > Chapitres > Items. Les totaux sont dérivés, jamais saisis.
type DQE struct {
	ID          uint   `gorm:"primaryKey"`
	Reference   string `gorm:"size:20;uniqueIndex;not null"` // format DQE-YYYY-NNN
	Name        string `gorm:"not null"`
	Description string
	ClientID    uint   `gorm:"index"`
	Client      Client `gorm:"foreignKey:ClientID"`
	Status      string `gorm:"not null;default:'draft'"` // draft, in_review, validated, rejected, archived
	TauxTVA     float64
	TotalHT     float64 // somme des totaux des lots
	TotalTVA    float64 // TotalHT * TauxTVA / 100
	TotalTTC    float64 // TotalHT + TotalTVA

	// État de conversion : un DQE converti devient immuable.
	IsConverted         bool       `gorm:"not null;default:false;index"`
	LinkedProjectID     *uint      `gorm:"column:linked_project_id"`
	LinkedProjectNumber string     `gorm:"size:20"`
	ConvertedAt         *time.Time
	ConvertedBy         *uint // UserID de l'acteur

	Lots      []Lot `gorm:"foreignKey:DQEID"`
	CreatedBy uint
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DQE) TableName() string { return "dqes" }

// Lot : regroupement de premier niveau d'un DQE (ex: "Terrassement").
type Lot struct {
	ID           uint   `gorm:"primaryKey"`
	DQEID        uint   `gorm:"column:dqe_id;not null;index"`
	Code         string `gorm:"size:20;not null"`
	Name         string `gorm:"not null"`
	Description  string
	DisplayOrder int       `gorm:"not null"`
	TotalHT      float64   // somme des totaux des chapitres
	Percentage   float64   // part du lot dans le total du document (0..100)
	Chapters     []Chapter `gorm:"foreignKey:LotID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Lot) TableName() string { return "dqe_lots" }

// Chapter : regroupement intermédiaire à l'intérieur d'un lot.
type Chapter struct {
	ID           uint   `gorm:"primaryKey"`
	LotID        uint   `gorm:"not null;index"`
	Code         string `gorm:"size:20;not null"`
	Name         string `gorm:"not null"`
	Description  string
	DisplayOrder int     `gorm:"not null"`
	TotalHT      float64 // somme des totaux des items
	Items        []Item  `gorm:"foreignKey:ChapterID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Chapter) TableName() string { return "dqe_chapters" }

// Item : ligne feuille avec quantité, prix unitaire et total calculé.
type Item struct {
	ID           uint   `gorm:"primaryKey"`
	ChapterID    uint   `gorm:"not null;index"`
	Code         string `gorm:"size:20;not null"`
	Designation  string `gorm:"not null"`
	Description  string
	DisplayOrder int    `gorm:"not null"`
	Unit         string `gorm:"size:20"` // ex: m2, ml, u, forfait
	Quantity     float64
	UnitPriceHT  float64
	TotalHT      float64 // Quantity * UnitPriceHT
	DebourseSec  float64 // déboursé sec : coût interne, requis > 0 avant validation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Item) TableName() string { return "dqe_items" }
