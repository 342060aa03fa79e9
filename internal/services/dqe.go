package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/models"
)

// Motifs d'inéligibilité à la conversion, évalués dans cet ordre.
const (
	ReasonDocumentNotFound = "document not found"
	ReasonAlreadyConverted = "already converted"
	ReasonNotValidated     = "only validated documents can be converted"
	ReasonNoLots           = "document must contain at least one lot"
)

// DQEService porte les opérations de cycle de vie du DQE : création avec
// génération de référence, lectures ordonnées, remplacement de structure,
// validation, suppression logique et contrôle d'éligibilité.
type DQEService struct{ DB *gorm.DB }

func NewDQEService(db *gorm.DB) *DQEService { return &DQEService{DB: db} }

type ItemInput struct {
	Code        string  `json:"code"`
	Designation string  `json:"designation"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitPriceHT float64 `json:"unit_price_ht"`
	DebourseSec float64 `json:"debourse_sec"`
}

type ChapterInput struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Items       []ItemInput `json:"items"`
}

type LotInput struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Chapters    []ChapterInput `json:"chapters"`
}

type CreateDQEInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ClientID    uint       `json:"client_id"`
	TauxTVA     float64    `json:"taux_tva"`
	Lots        []LotInput `json:"lots"`
}

// DQEPatch is a typed partial update: only non-nil fields are written.
type DQEPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	ClientID    *uint    `json:"client_id"`
	TauxTVA     *float64 `json:"taux_tva"`
}

type DQEListFilter struct {
	Status    string
	Converted *bool
	Limit     int
	Offset    int
}

func buildLots(inputs []LotInput) ([]models.Lot, error) {
	lots := make([]models.Lot, 0, len(inputs))
	for li, lin := range inputs {
		lot := models.Lot{
			Code:         lin.Code,
			Name:         lin.Name,
			Description:  lin.Description,
			DisplayOrder: li + 1,
		}
		for ci, cin := range lin.Chapters {
			ch := models.Chapter{
				Code:         cin.Code,
				Name:         cin.Name,
				Description:  cin.Description,
				DisplayOrder: ci + 1,
			}
			for ii, iin := range cin.Items {
				if iin.Quantity <= 0 {
					return nil, invalidOp(fmt.Sprintf("item %s: quantity must be positive", iin.Code))
				}
				if iin.UnitPriceHT < 0 {
					return nil, invalidOp(fmt.Sprintf("item %s: unit price cannot be negative", iin.Code))
				}
				ch.Items = append(ch.Items, models.Item{
					Code:         iin.Code,
					Designation:  iin.Designation,
					Description:  iin.Description,
					DisplayOrder: ii + 1,
					Unit:         iin.Unit,
					Quantity:     iin.Quantity,
					UnitPriceHT:  iin.UnitPriceHT,
					DebourseSec:  iin.DebourseSec,
				})
			}
			lot.Chapters = append(lot.Chapters, ch)
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

func orderBy(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Order(column + " ASC") }
}

// fullDocument loads the complete hierarchy, lots/chapters/items ordered by
// display order.
func fullDocument(tx *gorm.DB, id uint) (*models.DQE, error) {
	var doc models.DQE
	err := tx.
		Preload("Client").
		Preload("Lots", orderBy("display_order")).
		Preload("Lots.Chapters", orderBy("display_order")).
		Preload("Lots.Chapters.Items", orderBy("display_order")).
		First(&doc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading dqe %d: %w", id, err)
	}
	return &doc, nil
}

func writeAudit(tx *gorm.DB, userID uint, entityType string, entityID uint, action, detail string) error {
	entry := models.AuditLog{UserID: userID, EntityType: entityType, EntityID: entityID, Action: action, Detail: detail}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// Create inserts the document with its full hierarchy in one transaction,
// generates its reference and computes every derived total.
func (s *DQEService) Create(in CreateDQEInput, actorID uint) (*models.DQE, error) {
	if in.Name == "" {
		return nil, invalidOp("document name is required")
	}
	var doc models.DQE
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		ref, err := NextDQEReference(tx, time.Now().UTC().Year())
		if err != nil {
			return err
		}
		lots, err := buildLots(in.Lots)
		if err != nil {
			return err
		}
		doc = models.DQE{
			Reference:   ref,
			Name:        in.Name,
			Description: in.Description,
			ClientID:    in.ClientID,
			Status:      models.DQEStatusDraft,
			TauxTVA:     in.TauxTVA,
			Lots:        lots,
			CreatedBy:   actorID,
		}
		RecalculateTotals(&doc)
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("creating dqe: %w", err)
		}
		return writeAudit(tx, actorID, "DQE", doc.ID, "create", doc.Reference)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Get returns the full hierarchy for one document.
func (s *DQEService) Get(id uint) (*models.DQE, error) {
	return fullDocument(s.DB, id)
}

// List returns documents matching the filter, newest first, with the total count.
func (s *DQEService) List(f DQEListFilter) ([]models.DQE, int64, error) {
	q := s.DB.Model(&models.DQE{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Converted != nil {
		q = q.Where("is_converted = ?", *f.Converted)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting dqes: %w", err)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var docs []models.DQE
	if err := q.Preload("Client").Order("id desc").Limit(limit).Offset(f.Offset).Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("listing dqes: %w", err)
	}
	return docs, total, nil
}

// Update applies a partial header update. Structure is untouched; a tax-rate
// change refreshes the tax totals from the stored HT total.
func (s *DQEService) Update(id uint, patch DQEPatch, actorID uint) (*models.DQE, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var doc models.DQE
		if err := tx.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("loading dqe %d: %w", id, err)
		}
		if doc.IsConverted {
			return invalidOp("document is converted and read-only")
		}
		updates := map[string]any{}
		if patch.Name != nil {
			if *patch.Name == "" {
				return invalidOp("document name is required")
			}
			updates["name"] = *patch.Name
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.ClientID != nil {
			updates["client_id"] = *patch.ClientID
		}
		if patch.TauxTVA != nil {
			tva := round2(doc.TotalHT * *patch.TauxTVA / 100)
			updates["taux_tva"] = *patch.TauxTVA
			updates["total_tva"] = tva
			updates["total_ttc"] = round2(doc.TotalHT + tva)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&doc).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating dqe %d: %w", id, err)
		}
		return writeAudit(tx, actorID, "DQE", doc.ID, "update", "")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// ReplaceStructure drops every lot/chapter/item of the document and rebuilds
// the hierarchy from the input, then recomputes all derived totals, in one
// transaction.
func (s *DQEService) ReplaceStructure(id uint, lots []LotInput, actorID uint) (*models.DQE, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var doc models.DQE
		if err := tx.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("loading dqe %d: %w", id, err)
		}
		if doc.IsConverted {
			return invalidOp("document is converted and read-only")
		}
		if doc.Status == models.DQEStatusValidated {
			return invalidOp("validated documents cannot be restructured")
		}

		var lotIDs []uint
		if err := tx.Model(&models.Lot{}).Where("dqe_id = ?", id).Pluck("id", &lotIDs).Error; err != nil {
			return fmt.Errorf("collecting lots of dqe %d: %w", id, err)
		}
		if len(lotIDs) > 0 {
			var chapterIDs []uint
			if err := tx.Model(&models.Chapter{}).Where("lot_id IN ?", lotIDs).Pluck("id", &chapterIDs).Error; err != nil {
				return fmt.Errorf("collecting chapters of dqe %d: %w", id, err)
			}
			if len(chapterIDs) > 0 {
				if err := tx.Where("chapter_id IN ?", chapterIDs).Delete(&models.Item{}).Error; err != nil {
					return fmt.Errorf("deleting items of dqe %d: %w", id, err)
				}
			}
			if err := tx.Where("lot_id IN ?", lotIDs).Delete(&models.Chapter{}).Error; err != nil {
				return fmt.Errorf("deleting chapters of dqe %d: %w", id, err)
			}
			if err := tx.Where("dqe_id = ?", id).Delete(&models.Lot{}).Error; err != nil {
				return fmt.Errorf("deleting lots of dqe %d: %w", id, err)
			}
		}

		newLots, err := buildLots(lots)
		if err != nil {
			return err
		}
		doc.Lots = newLots
		RecalculateTotals(&doc)
		for i := range doc.Lots {
			doc.Lots[i].DQEID = id
		}
		if len(doc.Lots) > 0 {
			if err := tx.Create(&doc.Lots).Error; err != nil {
				return fmt.Errorf("recreating lots of dqe %d: %w", id, err)
			}
		}
		totals := map[string]any{
			"total_ht":  doc.TotalHT,
			"total_tva": doc.TotalTVA,
			"total_ttc": doc.TotalTTC,
		}
		if err := tx.Model(&models.DQE{}).Where("id = ?", id).Updates(totals).Error; err != nil {
			return fmt.Errorf("updating totals of dqe %d: %w", id, err)
		}
		return writeAudit(tx, actorID, "DQE", id, "replace_structure", "")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Validate transitions a draft or in-review document to validated. Every item
// must carry a positive direct cost (déboursé sec) first.
func (s *DQEService) Validate(id, actorID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		doc, err := fullDocument(tx, id)
		if err != nil {
			return err
		}
		if doc.Status == models.DQEStatusValidated {
			return invalidOp("document already validated")
		}
		if doc.Status != models.DQEStatusDraft && doc.Status != models.DQEStatusInReview {
			return invalidOp("only draft or in-review documents can be validated")
		}
		for _, lot := range doc.Lots {
			for _, ch := range lot.Chapters {
				for _, it := range ch.Items {
					if it.DebourseSec <= 0 {
						return invalidOp(fmt.Sprintf("item %s: direct cost must be set before validation", it.Code))
					}
				}
			}
		}
		if err := tx.Model(doc).Update("status", models.DQEStatusValidated).Error; err != nil {
			return fmt.Errorf("validating dqe %d: %w", id, err)
		}
		return writeAudit(tx, actorID, "DQE", id, "validate", "")
	})
}

// SoftDelete flags the document deleted. Converted documents are kept for
// project traceability.
func (s *DQEService) SoftDelete(id, actorID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var doc models.DQE
		if err := tx.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("loading dqe %d: %w", id, err)
		}
		if doc.IsConverted {
			return invalidOp("converted documents cannot be deleted")
		}
		if err := tx.Delete(&doc).Error; err != nil {
			return fmt.Errorf("deleting dqe %d: %w", id, err)
		}
		return writeAudit(tx, actorID, "DQE", id, "delete", "")
	})
}

// CanConvert evaluates conversion eligibility. First failing rule wins; the
// returned reason is empty when the document is eligible.
func (s *DQEService) CanConvert(id uint) (bool, string, error) {
	var doc models.DQE
	if err := s.DB.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ReasonDocumentNotFound, nil
		}
		return false, "", fmt.Errorf("loading dqe %d: %w", id, err)
	}
	if doc.IsConverted {
		return false, ReasonAlreadyConverted, nil
	}
	if doc.Status != models.DQEStatusValidated {
		return false, ReasonNotValidated, nil
	}
	var lotCount int64
	if err := s.DB.Model(&models.Lot{}).Where("dqe_id = ?", id).Count(&lotCount).Error; err != nil {
		return false, "", fmt.Errorf("counting lots of dqe %d: %w", id, err)
	}
	if lotCount == 0 {
		return false, ReasonNoLots, nil
	}
	return true, "", nil
}
