package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/models"
)

// Les numéros séquentiels sont alloués en MAX()+1 dans la transaction
// d'écriture. Suffisant sous le modèle mono-écrivain ; pas de garantie
// anti-trou sous écrivains réellement concurrents.

// NextDQEReference returns the next reference of the form DQE-YYYY-NNN for
// the given year, inside tx. Soft-deleted documents still reserve theirs.
func NextDQEReference(tx *gorm.DB, year int) (string, error) {
	prefix := fmt.Sprintf("DQE-%d-", year)
	var maxSeq int
	err := tx.Unscoped().Model(&models.DQE{}).
		Where("reference LIKE ?", prefix+"%").
		Select("COALESCE(MAX(CAST(SUBSTR(reference, ?) AS INTEGER)), 0)", len(prefix)+1).
		Scan(&maxSeq).Error
	if err != nil {
		return "", fmt.Errorf("allocating dqe reference: %w", err)
	}
	return fmt.Sprintf("%s%03d", prefix, maxSeq+1), nil
}

// NextProjectNumber returns the next number of the form PRJYYYYNNNN for the
// given year, inside tx.
func NextProjectNumber(tx *gorm.DB, year int) (string, error) {
	prefix := fmt.Sprintf("PRJ%d", year)
	var maxSeq int
	err := tx.Model(&models.Project{}).
		Where("number LIKE ?", prefix+"%").
		Select("COALESCE(MAX(CAST(SUBSTR(number, ?) AS INTEGER)), 0)", len(prefix)+1).
		Scan(&maxSeq).Error
	if err != nil {
		return "", fmt.Errorf("allocating project number: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, maxSeq+1), nil
}
