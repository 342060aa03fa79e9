package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/models"
)

// StageMode selects how project stages are derived from the document.
type StageMode string

const (
	// StageModeHierarchical crée une étape par lot plus une sous-étape par
	// item ; toutes les étapes lot partagent la fenêtre du projet. Mode
	// principal.
	StageModeHierarchical StageMode = "hierarchical"
	// StageModeFlat (hérité) crée uniquement les étapes lot, enchaînées
	// séquentiellement : chaque lot démarre le lendemain de la fin du
	// précédent.
	StageModeFlat StageMode = "flat"
)

type ConvertRequest struct {
	Name          string           `json:"name"`           // défaut : nom du document
	Description   string           `json:"description"`    // défaut : description du document
	InitialStatus string           `json:"initial_status"` // défaut : planning
	StartDate     time.Time        `json:"-"`
	DurationDays  int              `json:"duration_days"`
	StageMode     StageMode        `json:"stage_mode"` // défaut : hierarchical
	Policy        AllocationPolicy `json:"policy"`     // défaut : proportional
}

// ConversionService orchestre la conversion DQE -> Projet : contrôle
// d'éligibilité, création du projet et des étapes, marquage du document.
// Chaque opération d'écriture tient dans une seule transaction.
type ConversionService struct{ DB *gorm.DB }

func NewConversionService(db *gorm.DB) *ConversionService { return &ConversionService{DB: db} }

type StagePreview struct {
	LotID        uint      `json:"lot_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Budget       float64   `json:"budget"`
	Percentage   float64   `json:"percentage"`
	DurationDays int       `json:"duration_days"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	ItemCount    int       `json:"item_count"`
}

type ConversionPreview struct {
	DocumentID    uint           `json:"document_id"`
	Reference     string         `json:"reference"`
	DocumentName  string         `json:"document_name"`
	TotalHT       float64        `json:"total_ht"`
	TotalTVA      float64        `json:"total_tva"`
	TotalTTC      float64        `json:"total_ttc"`
	Eligible      bool           `json:"eligible"`
	Reason        string         `json:"reason,omitempty"`
	ProjectNumber string         `json:"project_number"` // candidat, non réservé
	ProjectName   string         `json:"project_name"`
	StartDate     time.Time      `json:"start_date"`
	EndDate       time.Time      `json:"end_date"`
	DurationDays  int            `json:"duration_days"`
	Stages        []StagePreview `json:"stages"`
}

func (r *ConvertRequest) normalize(doc *models.DQE) {
	if r.Name == "" {
		r.Name = doc.Name
	}
	if r.Description == "" {
		r.Description = doc.Description
	}
	if r.InitialStatus == "" {
		r.InitialStatus = models.ProjectStatusPlanning
	}
	if r.StageMode == "" {
		r.StageMode = StageModeHierarchical
	}
	if r.Policy == "" {
		r.Policy = AllocationProportional
	}
	if r.StartDate.IsZero() {
		now := time.Now().UTC()
		r.StartDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

type stageWindow struct{ start, end time.Time }

// stageWindows computes the date range of each lot stage. In flat mode lots
// chain sequentially (next starts the day after the previous ends); in
// hierarchical mode every lot starts at the window start.
func stageWindows(start time.Time, durations []int, mode StageMode) []stageWindow {
	ws := make([]stageWindow, len(durations))
	cursor := start
	for i, d := range durations {
		s := start
		if mode == StageModeFlat {
			s = cursor
		}
		e := s.AddDate(0, 0, d-1)
		ws[i] = stageWindow{start: s, end: e}
		cursor = e.AddDate(0, 0, 1)
	}
	return ws
}

func lotWeights(doc *models.DQE) []float64 {
	weights := make([]float64, len(doc.Lots))
	for i := range doc.Lots {
		weights[i] = doc.Lots[i].TotalHT
	}
	return weights
}

func lotDirectCost(lot *models.Lot) float64 {
	var total float64
	for ci := range lot.Chapters {
		for ii := range lot.Chapters[ci].Items {
			total += lot.Chapters[ci].Items[ii].DebourseSec
		}
	}
	return round2(total)
}

// createStages inserts the stage rows for every lot of the document, top-level
// orders starting at orderStart. Hierarchical mode adds one item sub-stage per
// item under each lot stage, sharing the lot's window.
func createStages(tx *gorm.DB, project *models.Project, doc *models.DQE, start time.Time, totalDays int, mode StageMode, policy AllocationPolicy, orderStart int) error {
	durations := AllocateDurations(lotWeights(doc), totalDays, policy)
	windows := stageWindows(start, durations, mode)
	for i := range doc.Lots {
		lot := &doc.Lots[i]
		level := i + 1
		stage := models.ProjectStage{
			ProjectID:    project.ID,
			DisplayOrder: orderStart + i,
			Level:        level,
			Kind:         models.StageKindLot,
			Name:         lot.Name,
			StartDate:    windows[i].start,
			EndDate:      windows[i].end,
			Budget:       lot.TotalHT,
			Cost:         lotDirectCost(lot),
			LotID:        &lot.ID,
			LotCode:      lot.Code,
			DQERef:       doc.Reference,
		}
		if err := tx.Create(&stage).Error; err != nil {
			return fmt.Errorf("creating stage for lot %s: %w", lot.Code, err)
		}
		if mode != StageModeHierarchical {
			continue
		}
		childOrder := 0
		for ci := range lot.Chapters {
			ch := &lot.Chapters[ci]
			for ii := range ch.Items {
				it := &ch.Items[ii]
				childOrder++
				sub := models.ProjectStage{
					ProjectID:     project.ID,
					ParentStageID: &stage.ID,
					DisplayOrder:  childOrder,
					Level:         level,
					Kind:          models.StageKindItem,
					Name:          it.Designation,
					StartDate:     windows[i].start,
					EndDate:       windows[i].end,
					Budget:        it.TotalHT,
					Cost:          it.DebourseSec,
					Unit:          it.Unit,
					Quantity:      it.Quantity,
					UnitPriceHT:   it.UnitPriceHT,
					LotID:         &lot.ID,
					LotCode:       lot.Code,
					ChapterID:     &ch.ID,
					ChapterCode:   ch.Code,
					ItemID:        &it.ID,
					ItemCode:      it.Code,
					DQERef:        doc.Reference,
				}
				if err := tx.Create(&sub).Error; err != nil {
					return fmt.Errorf("creating stage for item %s: %w", it.Code, err)
				}
			}
		}
	}
	return nil
}

func markConverted(tx *gorm.DB, docID uint, project *models.Project, actorID uint, now time.Time) error {
	updates := map[string]any{
		"is_converted":          true,
		"linked_project_id":     project.ID,
		"linked_project_number": project.Number,
		"converted_at":          now,
		"converted_by":          actorID,
	}
	if err := tx.Model(&models.DQE{}).Where("id = ?", docID).Updates(updates).Error; err != nil {
		return fmt.Errorf("marking dqe %d converted: %w", docID, err)
	}
	return nil
}

// checkEligibility reruns the eligibility rules inside tx so that two
// concurrent conversions of the same document cannot both pass.
func checkEligibility(tx *gorm.DB, documentID uint) error {
	ok, reason, err := NewDQEService(tx).CanConvert(documentID)
	if err != nil {
		return err
	}
	if !ok {
		if reason == ReasonDocumentNotFound {
			return ErrNotFound
		}
		return invalidOp(reason)
	}
	return nil
}

// Convert turns a validated document into a new project with its stage
// hierarchy. All steps run in one transaction; any failure rolls everything
// back and the document stays unconverted.
func (s *ConversionService) Convert(documentID uint, req ConvertRequest, actorID uint) (*models.Project, error) {
	var project models.Project
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := checkEligibility(tx, documentID); err != nil {
			return err
		}
		doc, err := fullDocument(tx, documentID)
		if err != nil {
			return err
		}
		req.normalize(doc)

		now := time.Now().UTC()
		number, err := NextProjectNumber(tx, now.Year())
		if err != nil {
			return err
		}
		project = models.Project{
			Number:         number,
			Name:           req.Name,
			Description:    req.Description,
			ClientID:       doc.ClientID,
			Status:         req.InitialStatus,
			StartDate:      req.StartDate,
			EndDate:        req.StartDate.AddDate(0, 0, req.DurationDays),
			BudgetInitial:  doc.TotalHT,
			BudgetRevised:  doc.TotalHT,
			CostActual:     0,
			LinkedDQEID:    &doc.ID,
			LinkedDQERef:   doc.Reference,
			LinkedDQEName:  doc.Name,
			LinkedDQETotal: doc.TotalHT,
			ConvertedAt:    &now,
			CreatedBy:      actorID,
		}
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		if err := createStages(tx, &project, doc, req.StartDate, req.DurationDays, req.StageMode, req.Policy, 1); err != nil {
			return err
		}
		if err := markConverted(tx, doc.ID, &project, actorID, now); err != nil {
			return err
		}
		return writeAudit(tx, actorID, "DQE", doc.ID, "convert", project.Number)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// LinkToProject attaches a validated document to an existing project instead
// of creating one. Stages are appended after the project's current top-level
// stages, within the project's own date window, and the revised budget grows
// by the document total.
func (s *ConversionService) LinkToProject(documentID, projectID, actorID uint) (*models.Project, error) {
	var project models.Project
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := checkEligibility(tx, documentID); err != nil {
			return err
		}
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("loading project %d: %w", projectID, err)
		}
		if project.Status == models.ProjectStatusCompleted || project.Status == models.ProjectStatusCancelled {
			return invalidOp("project is closed")
		}
		if project.LinkedDQEID != nil {
			return invalidOp("project already linked to a document")
		}
		doc, err := fullDocument(tx, documentID)
		if err != nil {
			return err
		}

		var maxOrder int
		err = tx.Model(&models.ProjectStage{}).
			Where("project_id = ? AND parent_stage_id IS NULL", projectID).
			Select("COALESCE(MAX(display_order), 0)").
			Scan(&maxOrder).Error
		if err != nil {
			return fmt.Errorf("reading stage order of project %d: %w", projectID, err)
		}

		totalDays := int(project.EndDate.Sub(project.StartDate).Hours() / 24)
		if err := createStages(tx, &project, doc, project.StartDate, totalDays, StageModeHierarchical, AllocationProportional, maxOrder+1); err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"budget_revised":   gorm.Expr("budget_revised + ?", doc.TotalHT),
			"linked_dqe_id":    doc.ID,
			"linked_dqe_ref":   doc.Reference,
			"linked_dqe_name":  doc.Name,
			"linked_dqe_total": doc.TotalHT,
			"converted_at":     now,
		}
		if err := tx.Model(&project).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating project %d: %w", projectID, err)
		}
		if err := markConverted(tx, doc.ID, &project, actorID, now); err != nil {
			return err
		}
		return writeAudit(tx, actorID, "DQE", doc.ID, "link", project.Number)
	})
	if err != nil {
		return nil, err
	}
	if err := s.DB.First(&project, projectID).Error; err != nil {
		return nil, fmt.Errorf("reloading project %d: %w", projectID, err)
	}
	return &project, nil
}

// Preview computes what Convert would produce without persisting anything,
// using the exact same allocation and date math. The candidate project number
// is not reserved.
func (s *ConversionService) Preview(documentID uint, req ConvertRequest) (*ConversionPreview, error) {
	doc, err := fullDocument(s.DB, documentID)
	if err != nil {
		return nil, err
	}
	req.normalize(doc)

	number, err := NextProjectNumber(s.DB, time.Now().UTC().Year())
	if err != nil {
		return nil, err
	}
	ok, reason, err := NewDQEService(s.DB).CanConvert(documentID)
	if err != nil {
		return nil, err
	}

	durations := AllocateDurations(lotWeights(doc), req.DurationDays, req.Policy)
	windows := stageWindows(req.StartDate, durations, req.StageMode)

	preview := &ConversionPreview{
		DocumentID:    doc.ID,
		Reference:     doc.Reference,
		DocumentName:  doc.Name,
		TotalHT:       doc.TotalHT,
		TotalTVA:      doc.TotalTVA,
		TotalTTC:      doc.TotalTTC,
		Eligible:      ok,
		Reason:        reason,
		ProjectNumber: number,
		ProjectName:   req.Name,
		StartDate:     req.StartDate,
		EndDate:       req.StartDate.AddDate(0, 0, req.DurationDays),
		DurationDays:  req.DurationDays,
		Stages:        make([]StagePreview, 0, len(doc.Lots)),
	}
	for i := range doc.Lots {
		lot := &doc.Lots[i]
		itemCount := 0
		for ci := range lot.Chapters {
			itemCount += len(lot.Chapters[ci].Items)
		}
		preview.Stages = append(preview.Stages, StagePreview{
			LotID:        lot.ID,
			Code:         lot.Code,
			Name:         lot.Name,
			Budget:       lot.TotalHT,
			Percentage:   lot.Percentage,
			DurationDays: durations[i],
			StartDate:    windows[i].start,
			EndDate:      windows[i].end,
			ItemCount:    itemCount,
		})
	}
	return preview, nil
}
