package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"zonuko/internal/database"
	"zonuko/internal/logger"
	"zonuko/internal/models"
	"zonuko/internal/repository"
	"zonuko/internal/validation"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// CatalogFile is the YAML document used to import and export the catalog.
type CatalogFile struct {
	Skills   []SkillEntry   `yaml:"skills,omitempty" validate:"dive"`
	Projects []CatalogEntry `yaml:"projects" validate:"dive"`
}

type SkillEntry struct {
	Name        string `yaml:"name" validate:"required,max=100"`
	Description string `yaml:"description,omitempty"`
}

type SkillWeightEntry struct {
	Name   string `yaml:"name" validate:"required,max=100"`
	Weight int    `yaml:"weight" validate:"min=1,max=5"`
}

// CatalogEntry is one project in a catalog file. Dimensions and steps are
// derived when omitted.
type CatalogEntry struct {
	Title            string                   `yaml:"title" validate:"required,max=200"`
	Description      string                   `yaml:"description,omitempty"`
	Category         string                   `yaml:"category" validate:"required,oneof=science tech engineering art math"`
	Type             string                   `yaml:"type" validate:"required,oneof=spark lab"`
	Difficulty       int                      `yaml:"difficulty" validate:"min=1,max=3"`
	AgeBands         []string                 `yaml:"age_bands" validate:"min=1,dive,oneof=IMAGINAUTS NAVIGATORS TRAILBLAZERS"`
	MinimumStage     int                      `yaml:"minimum_stage" validate:"min=1,max=5"`
	EstimatedMinutes int                      `yaml:"estimated_minutes,omitempty" validate:"min=0"`
	Visibility       string                   `yaml:"visibility" validate:"required,oneof=hidden scheduled live coming_soon"`
	PublishedAt      *time.Time               `yaml:"published_at,omitempty"`
	Featured         bool                     `yaml:"featured,omitempty"`
	Emoji            string                   `yaml:"emoji,omitempty"`
	MaterialsNeeded  string                   `yaml:"materials_needed,omitempty"`
	Instructions     string                   `yaml:"instructions,omitempty"`
	Steps            []models.InstructionStep `yaml:"steps,omitempty"`
	VideoURL         string                   `yaml:"video_url,omitempty" validate:"omitempty,url"`
	Tags             []string                 `yaml:"tags,omitempty"`
	Dimensions       *models.SkillDimensions  `yaml:"skill_dimensions,omitempty"`
	Skills           []SkillWeightEntry       `yaml:"skills,omitempty" validate:"dive"`
	PathwayPoints    map[string]int           `yaml:"pathway_points,omitempty" validate:"dive,keys,oneof=thinking making problem_solving resilience design_planning contribution,endkeys,min=0"`
	Prerequisites    []string                 `yaml:"prerequisites,omitempty"`
}

// ImportSummary counts what an import changed.
type ImportSummary struct {
	Created int
	Updated int
	Skills  int
}

// CacheInvalidator drops cached catalog reads after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CatalogService imports and exports the project catalog.
type CatalogService struct {
	db    *database.DB
	repo  *repository.CatalogRepository
	cache CacheInvalidator
	log   *logger.Logger
}

func NewCatalogService(db *database.DB, cache CacheInvalidator, log *logger.Logger) *CatalogService {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogService{
		db:    db,
		repo:  repository.NewCatalogRepository(db),
		cache: cache,
		log:   log.With("service", "CatalogService"),
	}
}

// ParseCatalog decodes and validates a catalog document. Unknown keys and
// duplicate titles are rejected, as is a project that requires itself.
func ParseCatalog(r io.Reader) (*CatalogFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file CatalogFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validation.Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	titles := make(map[string]bool, len(file.Projects))
	for _, e := range file.Projects {
		if titles[e.Title] {
			return nil, fmt.Errorf("%w: duplicate project title %q", ErrInvalidCatalog, e.Title)
		}
		titles[e.Title] = true
	}
	for _, e := range file.Projects {
		for _, pre := range e.Prerequisites {
			if pre == e.Title {
				return nil, fmt.Errorf("%w: project %q lists itself as a prerequisite", ErrInvalidCatalog, e.Title)
			}
		}
	}
	return &file, nil
}

// Import upserts every skill and project in file inside one transaction.
// Projects match existing rows by title, so re-importing is idempotent.
func (s *CatalogService) Import(ctx context.Context, file *CatalogFile) (ImportSummary, error) {
	var sum ImportSummary

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		repo := s.repo.WithTx(tx)
		skillIDs := map[string]int64{}

		skillID := func(name, description string) (int64, error) {
			if id, ok := skillIDs[name]; ok {
				return id, nil
			}
			id, err := repo.GetOrCreateSkill(ctx, name, description)
			if err != nil {
				return 0, err
			}
			skillIDs[name] = id
			return id, nil
		}

		for _, sk := range file.Skills {
			if _, err := skillID(sk.Name, sk.Description); err != nil {
				return err
			}
		}

		projectIDs := map[string]int64{}
		for i := range file.Projects {
			entry := &file.Projects[i]
			p, err := entryToProject(entry, skillID)
			if err != nil {
				return err
			}
			id, created, err := repo.UpsertProject(ctx, p)
			if err != nil {
				return err
			}
			projectIDs[entry.Title] = id
			if created {
				sum.Created++
			} else {
				sum.Updated++
			}
		}

		// Prerequisites may point at projects later in the file or already stored.
		for _, entry := range file.Projects {
			if len(entry.Prerequisites) == 0 {
				continue
			}
			var ids []int64
			for _, title := range entry.Prerequisites {
				id, ok := projectIDs[title]
				if !ok {
					var err error
					if id, err = repo.ProjectIDByTitle(ctx, title); err != nil {
						return err
					}
				}
				if id == 0 {
					return fmt.Errorf("%w: project %q requires unknown project %q", ErrInvalidCatalog, entry.Title, title)
				}
				ids = append(ids, id)
			}
			if err := repo.SetPrerequisites(ctx, projectIDs[entry.Title], ids); err != nil {
				return err
			}
		}

		sum.Skills = len(skillIDs)
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("Catalog cache invalidation failed", "error", err)
		}
	}

	s.log.Info("Catalog imported", "created", sum.Created, "updated", sum.Updated, "skills", sum.Skills)
	return sum, nil
}

func entryToProject(e *CatalogEntry, skillID func(name, description string) (int64, error)) (*models.Project, error) {
	p := &models.Project{
		Title:            e.Title,
		Description:      e.Description,
		Category:         models.Category(e.Category),
		Type:             models.ProjectType(e.Type),
		Difficulty:       e.Difficulty,
		MinimumStage:     models.Stage(e.MinimumStage),
		EstimatedMinutes: e.EstimatedMinutes,
		Visibility:       models.Visibility(e.Visibility),
		PublishedAt:      e.PublishedAt,
		IsFeatured:       e.Featured,
		Emoji:            e.Emoji,
		MaterialsNeeded:  e.MaterialsNeeded,
		Instructions:     e.Instructions,
		InstructionSteps: e.Steps,
		VideoURL:         e.VideoURL,
		Tags:             e.Tags,
	}

	for _, b := range e.AgeBands {
		band, _ := models.ParseAgeBand(b)
		p.AgeBands = append(p.AgeBands, band)
	}

	if e.Dimensions != nil && !e.Dimensions.IsZero() {
		p.Dimensions = *e.Dimensions
	} else {
		p.Dimensions = DeriveDimensions(p.Category, p.Difficulty)
	}
	if len(p.InstructionSteps) == 0 {
		p.InstructionSteps = DeriveInstructionSteps(e.Instructions)
	}

	seen := map[string]bool{}
	for _, sw := range e.Skills {
		if seen[sw.Name] {
			return nil, fmt.Errorf("%w: project %q lists skill %q twice", ErrInvalidCatalog, e.Title, sw.Name)
		}
		seen[sw.Name] = true
		id, err := skillID(sw.Name, "")
		if err != nil {
			return nil, err
		}
		p.Skills = append(p.Skills, models.SkillWeight{SkillID: id, SkillName: sw.Name, Weight: sw.Weight})
	}

	if len(e.PathwayPoints) > 0 {
		p.PathwayPoints = models.PathwayPointMap{}
		for k, v := range e.PathwayPoints {
			p.PathwayPoints[models.Pathway(k)] = v
		}
	}
	return p, nil
}

// Export returns the stored catalog as a catalog document.
func (s *CatalogService) Export(ctx context.Context) (*CatalogFile, error) {
	skills, err := s.repo.ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	titles := make(map[int64]string, len(projects))
	for _, p := range projects {
		titles[p.ID] = p.Title
	}

	file := &CatalogFile{}
	for _, sk := range skills {
		file.Skills = append(file.Skills, SkillEntry{Name: sk.Name, Description: sk.Description})
	}
	for _, p := range projects {
		file.Projects = append(file.Projects, projectToEntry(p, titles))
	}
	return file, nil
}

func projectToEntry(p models.Project, titles map[int64]string) CatalogEntry {
	dims := p.Dimensions
	e := CatalogEntry{
		Title:            p.Title,
		Description:      p.Description,
		Category:         string(p.Category),
		Type:             string(p.Type),
		Difficulty:       p.Difficulty,
		MinimumStage:     int(p.MinimumStage),
		EstimatedMinutes: p.EstimatedMinutes,
		Visibility:       string(p.Visibility),
		PublishedAt:      p.PublishedAt,
		Featured:         p.IsFeatured,
		Emoji:            p.Emoji,
		MaterialsNeeded:  p.MaterialsNeeded,
		Instructions:     p.Instructions,
		Steps:            p.InstructionSteps,
		VideoURL:         p.VideoURL,
		Tags:             p.Tags,
		Dimensions:       &dims,
	}
	for _, b := range p.AgeBands {
		e.AgeBands = append(e.AgeBands, string(b))
	}
	for _, sw := range p.Skills {
		e.Skills = append(e.Skills, SkillWeightEntry{Name: sw.SkillName, Weight: sw.Weight})
	}
	if len(p.PathwayPoints) > 0 {
		e.PathwayPoints = map[string]int{}
		for k, v := range p.PathwayPoints {
			e.PathwayPoints[string(k)] = v
		}
	}
	for _, id := range p.PrerequisiteIDs {
		if t, ok := titles[id]; ok {
			e.Prerequisites = append(e.Prerequisites, t)
		}
	}
	sort.Strings(e.Prerequisites)
	return e
}

// WriteCatalog encodes file as YAML.
func WriteCatalog(w io.Writer, file *CatalogFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}
