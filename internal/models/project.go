package models

import "time"

// Project statuses
const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusOnHold     = "on_hold"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Stage kinds (niveau lot ou niveau item)
const (
	StageKindLot  = "lot"
	StageKindItem = "item"
)

// Project : chantier créé manuellement ou issu de la conversion d'un DQE.
type Project struct {
	ID          uint   `gorm:"primaryKey"`
	Number      string `gorm:"size:20;uniqueIndex;not null"` // format PRJYYYYNNNN
	Name        string `gorm:"not null"`
	Description string
	ClientID    uint   `gorm:"index"`
	Client      Client `gorm:"foreignKey:ClientID"`
	Status      string `gorm:"not null;default:'planning'"` // planning, in_progress, on_hold, completed, cancelled
	StartDate   time.Time
	EndDate     time.Time

	BudgetInitial float64
	BudgetRevised float64
	CostActual    float64

	// Lien réciproque vers le DQE d'origine (au plus un lien actif).
	LinkedDQEID    *uint   `gorm:"column:linked_dqe_id"`
	LinkedDQERef   string  `gorm:"column:linked_dqe_ref;size:20"`
	LinkedDQEName  string  `gorm:"column:linked_dqe_name"`
	LinkedDQETotal float64 `gorm:"column:linked_dqe_total"`
	ConvertedAt    *time.Time

	Stages    []ProjectStage `gorm:"foreignKey:ProjectID"`
	CreatedBy uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectStage : étape de projet issue d'un lot ou d'un item du DQE.
// Auto-référence ParentStageID limitée à deux niveaux : étapes "lot"
// (parent nul) et sous-étapes "item" (parent = étape lot).
type ProjectStage struct {
	ID            uint  `gorm:"primaryKey"`
	ProjectID     uint  `gorm:"not null;index"`
	ParentStageID *uint `gorm:"index"`
	DisplayOrder  int   `gorm:"not null"`
	Level         int   `gorm:"not null"`
	Kind          string `gorm:"size:10;not null"` // lot, item
	Name          string `gorm:"not null"`
	StartDate     time.Time
	EndDate       time.Time
	Budget        float64
	Cost          float64

	// Champs copiés depuis l'item d'origine (étapes "item" uniquement)
	Unit        string `gorm:"size:20"`
	Quantity    float64
	UnitPriceHT float64

	// Traçabilité vers le DQE d'origine
	LotID        *uint  `gorm:"column:lot_id"`
	LotCode      string `gorm:"size:20"`
	ChapterID    *uint  `gorm:"column:chapter_id"`
	ChapterCode  string `gorm:"size:20"`
	ItemID       *uint  `gorm:"column:item_id"`
	ItemCode     string `gorm:"size:20"`
	DQERef       string `gorm:"column:dqe_ref;size:20"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
