package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/models"
)

// ProjectService porte les projets créés à la main (hors conversion) et les
// lectures projet + étapes.
type ProjectService struct{ DB *gorm.DB }

func NewProjectService(db *gorm.DB) *ProjectService { return &ProjectService{DB: db} }

type CreateProjectInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ClientID    uint      `json:"client_id"`
	Status      string    `json:"status"`
	StartDate   time.Time `json:"-"`
	EndDate     time.Time `json:"-"`
	Budget      float64   `json:"budget"`
}

type ProjectListFilter struct {
	Status string
	Limit  int
	Offset int
}

// Create inserts a project with a freshly generated number, in one transaction.
func (s *ProjectService) Create(in CreateProjectInput, actorID uint) (*models.Project, error) {
	if in.Name == "" {
		return nil, invalidOp("project name is required")
	}
	status := in.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}
	var project models.Project
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		number, err := NextProjectNumber(tx, time.Now().UTC().Year())
		if err != nil {
			return err
		}
		project = models.Project{
			Number:        number,
			Name:          in.Name,
			Description:   in.Description,
			ClientID:      in.ClientID,
			Status:        status,
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			BudgetInitial: in.Budget,
			BudgetRevised: in.Budget,
			CreatedBy:     actorID,
		}
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		return writeAudit(tx, actorID, "Project", project.ID, "create", project.Number)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Get returns the project with its stages, lot stages first then by display
// order, so the two-level hierarchy reads top-down.
func (s *ProjectService) Get(id uint) (*models.Project, error) {
	var project models.Project
	err := s.DB.
		Preload("Client").
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("parent_stage_id IS NOT NULL, display_order ASC, id ASC")
		}).
		First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading project %d: %w", id, err)
	}
	return &project, nil
}

// List returns projects matching the filter, newest first, with the total count.
func (s *ProjectService) List(f ProjectListFilter) ([]models.Project, int64, error) {
	q := s.DB.Model(&models.Project{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var projects []models.Project
	if err := q.Preload("Client").Order("id desc").Limit(limit).Offset(f.Offset).Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("listing projects: %w", err)
	}
	return projects, total, nil
}
