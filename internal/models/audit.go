package models

import "time"

// Audit logging
type AuditLog struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      // qui a fait la modification
	EntityType string    // ex: "DQE", "Project", "Client"
	EntityID   uint      // ID de l'entité modifiée
	Action     string    // ex: "create", "validate", "convert", "link"
	Detail     string    // contexte libre (ex: numéro de projet généré)
	CreatedAt  time.Time // quand
}
