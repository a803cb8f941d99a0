package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"zonuko/internal/database"
	"zonuko/internal/models"
)

// CatalogRepository reads and writes catalog projects and their associations
type CatalogRepository struct {
	db database.DBTX
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db database.DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) WithTx(tx *database.Tx) *CatalogRepository {
	return &CatalogRepository{db: tx}
}

const projectColumns = `p.id, p.title, p.description, p.category, p.type, p.difficulty, p.minimum_stage,
	p.estimated_minutes, p.visibility, p.published_at, p.is_featured, p.emoji, p.materials_needed,
	p.instructions, p.video_url, p.tags, p.dim_creative_thinking, p.dim_practical_making,
	p.dim_problem_solving, p.dim_resilience, p.created_at, p.updated_at`

// ListByAgeBand returns every project targeting band, in any visibility,
// ordered by id with associations loaded.
func (r *CatalogRepository) ListByAgeBand(ctx context.Context, band models.AgeBand) ([]models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects p
		JOIN project_age_bands b ON b.project_id = p.id
		WHERE b.age_band = ?
		ORDER BY p.id ASC
	`
	return r.listProjects(ctx, query, string(band))
}

// ListAll returns the whole catalog ordered by id
func (r *CatalogRepository) ListAll(ctx context.Context) ([]models.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects p ORDER BY p.id ASC"
	return r.listProjects(ctx, query)
}

// GetProject retrieves a project by ID with associations
func (r *CatalogRepository) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects p WHERE p.id = ?"
	projects, err := r.listProjects(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, nil
	}
	return &projects[0], nil
}

// ProjectIDByTitle returns the id of the project with title, or 0
func (r *CatalogRepository) ProjectIDByTitle(ctx context.Context, title string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM projects WHERE title = ?", title).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up project: %w", err)
	}
	return id, nil
}

func (r *CatalogRepository) listProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// loadAssociations fills bands, skills, steps, pathway points and
// prerequisites with one query per association.
func (r *CatalogRepository) loadAssociations(ctx context.Context, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	index := make(map[int64]*models.Project, len(projects))
	ids := make([]int64, 0, len(projects))
	for i := range projects {
		index[projects[i].ID] = &projects[i]
		ids = append(ids, projects[i].ID)
	}
	in, args := inClause(ids)

	loaders := []struct {
		name  string
		query string
		scan  func(*sql.Rows) error
	}{
		{
			name:  "age bands",
			query: "SELECT project_id, age_band FROM project_age_bands WHERE project_id IN (" + in + ") ORDER BY project_id, age_band",
			scan: func(rows *sql.Rows) error {
				var id int64
				var band string
				if err := rows.Scan(&id, &band); err != nil {
					return err
				}
				index[id].AgeBands = append(index[id].AgeBands, models.AgeBand(band))
				return nil
			},
		},
		{
			name: "skills",
			query: `SELECT ps.project_id, s.id, s.name, ps.weight
				FROM project_skills ps JOIN skills s ON s.id = ps.skill_id
				WHERE ps.project_id IN (` + in + `) ORDER BY ps.project_id, s.id`,
			scan: func(rows *sql.Rows) error {
				var id int64
				var sw models.SkillWeight
				if err := rows.Scan(&id, &sw.SkillID, &sw.SkillName, &sw.Weight); err != nil {
					return err
				}
				index[id].Skills = append(index[id].Skills, sw)
				return nil
			},
		},
		{
			name:  "instruction steps",
			query: "SELECT project_id, title, body FROM project_instruction_steps WHERE project_id IN (" + in + ") ORDER BY project_id, position",
			scan: func(rows *sql.Rows) error {
				var id int64
				var step models.InstructionStep
				if err := rows.Scan(&id, &step.Title, &step.Body); err != nil {
					return err
				}
				index[id].InstructionSteps = append(index[id].InstructionSteps, step)
				return nil
			},
		},
		{
			name: "pathway points",
			query: `SELECT project_id, thinking, making, problem_solving, resilience, design_planning, contribution
				FROM project_pathway_points WHERE project_id IN (` + in + `)`,
			scan: func(rows *sql.Rows) error {
				var id int64
				var pts [6]int
				if err := rows.Scan(&id, &pts[0], &pts[1], &pts[2], &pts[3], &pts[4], &pts[5]); err != nil {
					return err
				}
				m := models.PathwayPointMap{}
				for i, key := range models.Pathways {
					if pts[i] > 0 {
						m[key] = pts[i]
					}
				}
				index[id].PathwayPoints = m
				return nil
			},
		},
		{
			name:  "prerequisites",
			query: "SELECT project_id, prerequisite_id FROM project_prerequisites WHERE project_id IN (" + in + ") ORDER BY project_id, prerequisite_id",
			scan: func(rows *sql.Rows) error {
				var id, pre int64
				if err := rows.Scan(&id, &pre); err != nil {
					return err
				}
				index[id].PrerequisiteIDs = append(index[id].PrerequisiteIDs, pre)
				return nil
			},
		},
	}

	for _, l := range loaders {
		if err := r.eachRow(ctx, l.query, args, l.scan); err != nil {
			return fmt.Errorf("failed to load project %s: %w", l.name, err)
		}
	}
	return nil
}

func (r *CatalogRepository) eachRow(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// GetOrCreateSkill returns the id of the named skill, creating it if needed
func (r *CatalogRepository) GetOrCreateSkill(ctx context.Context, name, description string) (int64, error) {
	query := r.db.GetDialect().InsertIgnore("INSERT INTO skills (name, description) VALUES (?, ?)")
	if _, err := r.db.ExecContext(ctx, query, name, description); err != nil {
		return 0, fmt.Errorf("failed to create skill: %w", err)
	}
	var id int64
	if err := r.db.QueryRowContext(ctx, "SELECT id FROM skills WHERE name = ?", name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up skill: %w", err)
	}
	return id, nil
}

// ListSkills returns every skill by name
func (r *CatalogRepository) ListSkills(ctx context.Context) ([]models.Skill, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description FROM skills ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer rows.Close()

	var skills []models.Skill
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// UpsertProject creates or updates the project matching p.Title and replaces
// its associations. Skill ids in p.Skills must already exist. It returns the
// project id and whether the project was created.
func (r *CatalogRepository) UpsertProject(ctx context.Context, p *models.Project) (int64, bool, error) {
	existing, err := r.ProjectIDByTitle(ctx, p.Title)
	if err != nil {
		return 0, false, err
	}

	now := time.Now().UTC()
	args := []any{
		p.Description, string(p.Category), string(p.Type), p.Difficulty, int(p.MinimumStage),
		p.EstimatedMinutes, string(p.Visibility), nullTime(p.PublishedAt), p.IsFeatured, p.Emoji,
		p.MaterialsNeeded, p.Instructions, p.VideoURL, strings.Join(p.Tags, ","),
		p.Dimensions.CreativeThinking, p.Dimensions.PracticalMaking, p.Dimensions.ProblemSolving,
		p.Dimensions.Resilience, now,
	}

	id := existing
	if existing == 0 {
		query := `
			INSERT INTO projects (description, category, type, difficulty, minimum_stage,
				estimated_minutes, visibility, published_at, is_featured, emoji,
				materials_needed, instructions, video_url, tags,
				dim_creative_thinking, dim_practical_making, dim_problem_solving,
				dim_resilience, updated_at, title, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		id, err = r.db.ExecReturningID(ctx, query, append(args, p.Title, now)...)
		if err != nil {
			return 0, false, fmt.Errorf("failed to create project %q: %w", p.Title, err)
		}
	} else {
		query := `
			UPDATE projects SET description = ?, category = ?, type = ?, difficulty = ?,
				minimum_stage = ?, estimated_minutes = ?, visibility = ?, published_at = ?,
				is_featured = ?, emoji = ?, materials_needed = ?, instructions = ?,
				video_url = ?, tags = ?, dim_creative_thinking = ?, dim_practical_making = ?,
				dim_problem_solving = ?, dim_resilience = ?, updated_at = ?
			WHERE id = ?
		`
		if _, err := r.db.ExecContext(ctx, query, append(args, id)...); err != nil {
			return 0, false, fmt.Errorf("failed to update project %q: %w", p.Title, err)
		}
	}

	if err := r.replaceAssociations(ctx, id, p); err != nil {
		return 0, false, fmt.Errorf("failed to store associations for %q: %w", p.Title, err)
	}
	return id, existing == 0, nil
}

func (r *CatalogRepository) replaceAssociations(ctx context.Context, id int64, p *models.Project) error {
	for _, table := range []string{
		"project_age_bands", "project_skills", "project_instruction_steps",
		"project_pathway_points", "project_prerequisites",
	} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE project_id = ?", id); err != nil {
			return err
		}
	}

	for _, band := range p.AgeBands {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO project_age_bands (project_id, age_band) VALUES (?, ?)", id, string(band)); err != nil {
			return err
		}
	}
	for _, s := range p.Skills {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO project_skills (project_id, skill_id, weight) VALUES (?, ?, ?)", id, s.SkillID, s.Weight); err != nil {
			return err
		}
	}
	for i, step := range p.InstructionSteps {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO project_instruction_steps (project_id, position, title, body) VALUES (?, ?, ?, ?)",
			id, i+1, step.Title, step.Body); err != nil {
			return err
		}
	}
	if len(p.PathwayPoints) > 0 {
		pts := p.PathwayPoints
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO project_pathway_points (project_id, thinking, making, problem_solving, resilience, design_planning, contribution)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, pts[models.PathwayThinking], pts[models.PathwayMaking], pts[models.PathwayProblemSolving],
			pts[models.PathwayResilience], pts[models.PathwayDesignPlanning], pts[models.PathwayContribution]); err != nil {
			return err
		}
	}
	for _, pre := range p.PrerequisiteIDs {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO project_prerequisites (project_id, prerequisite_id) VALUES (?, ?)", id, pre); err != nil {
			return err
		}
	}
	return nil
}

func scanProject(row rowScanner) (*models.Project, error) {
	p := &models.Project{}
	var category, typ, visibility, tags string
	var stage int
	var publishedAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&category,
		&typ,
		&p.Difficulty,
		&stage,
		&p.EstimatedMinutes,
		&visibility,
		&publishedAt,
		&p.IsFeatured,
		&p.Emoji,
		&p.MaterialsNeeded,
		&p.Instructions,
		&p.VideoURL,
		&tags,
		&p.Dimensions.CreativeThinking,
		&p.Dimensions.PracticalMaking,
		&p.Dimensions.ProblemSolving,
		&p.Dimensions.Resilience,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Category = models.Category(category)
	p.Type = models.ProjectType(typ)
	p.Visibility = models.Visibility(visibility)
	p.MinimumStage = models.Stage(stage)
	p.PublishedAt = timePtr(publishedAt)
	if tags != "" {
		p.Tags = strings.Split(tags, ",")
	}
	return p, nil
}

// SetPrerequisites replaces the prerequisite edges of a project
func (r *CatalogRepository) SetPrerequisites(ctx context.Context, projectID int64, prerequisiteIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM project_prerequisites WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("failed to clear prerequisites: %w", err)
	}
	query := r.db.GetDialect().InsertIgnore("INSERT INTO project_prerequisites (project_id, prerequisite_id) VALUES (?, ?)")
	for _, pre := range prerequisiteIDs {
		if _, err := r.db.ExecContext(ctx, query, projectID, pre); err != nil {
			return fmt.Errorf("failed to add prerequisite: %w", err)
		}
	}
	return nil
}
