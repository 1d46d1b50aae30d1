package mysql

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "strings"
    "time"

    domain "github.com/bryanwahyu/creative-lens/internal/domain/crm"
)

type GraphRepository struct { db *sql.DB }

func NewGraphRepository(db *sql.DB) *GraphRepository { return &GraphRepository{db: db} }

// SearchCompanies case-insensitive name match
func (r *GraphRepository) SearchCompanies(ctx context.Context, tenant, query string) ([]*domain.Company, error) {
    const q = `
SELECT id, tenant_id, name, industry, website, type, tags_json, source, linked_assets_json, created_at
FROM crm_companies
WHERE tenant_id=? AND name_lower LIKE CONCAT('%', LOWER(?), '%')
ORDER BY created_at DESC
LIMIT 50;`
    rows, err := r.db.QueryContext(ctx, q, tenant, query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*domain.Company
    for rows.Next() {
        c, err := scanCompany(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// UpsertCompanyByName conditional insert: unique key (tenant_id, name_lower)
// makes concurrent upserts for the same brand converge on one row.
func (r *GraphRepository) UpsertCompanyByName(ctx context.Context, tenant string, c *domain.Company) (*domain.Company, error) {
    const ins = `
INSERT INTO crm_companies
  (id, tenant_id, name, name_lower, industry, website, type, tags_json, source, linked_assets_json, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE id=id;`

    tags, _ := json.Marshal(c.Tags)
    linked, _ := json.Marshal(c.LinkedAssetIDs)
    createdAt := c.CreatedAt
    if createdAt.IsZero() {
        createdAt = time.Now()
    }

    _, err := r.db.ExecContext(ctx, ins,
        c.ID, tenant, c.Name, strings.ToLower(c.Name), stringOrDash(c.Industry), c.Website,
        c.Type, string(tags), c.Source, string(linked), createdAt,
    )
    if err != nil {
        return nil, err
    }

    const sel = `
SELECT id, tenant_id, name, industry, website, type, tags_json, source, linked_assets_json, created_at
FROM crm_companies
WHERE tenant_id=? AND name_lower=?
LIMIT 1;`
    row := r.db.QueryRowContext(ctx, sel, tenant, strings.ToLower(c.Name))
    return scanCompany(row)
}

// UpdateCompanyAssets replace linked asset list
func (r *GraphRepository) UpdateCompanyAssets(ctx context.Context, tenant string, id domain.CompanyID, assetIDs []string) error {
    linked, err := json.Marshal(assetIDs)
    if err != nil {
        return err
    }
    const q = `UPDATE crm_companies SET linked_assets_json=? WHERE tenant_id=? AND id=?;`
    _, err = r.db.ExecContext(ctx, q, string(linked), tenant, id)
    return err
}

// SearchProjects by company
func (r *GraphRepository) SearchProjects(ctx context.Context, tenant string, companyID domain.CompanyID) ([]*domain.Project, error) {
    const q = `
SELECT id, tenant_id, company_id, name, status, type, linked_assets_json, created_at
FROM crm_projects
WHERE tenant_id=? AND company_id=?
ORDER BY created_at ASC;`
    rows, err := r.db.QueryContext(ctx, q, tenant, companyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*domain.Project
    for rows.Next() {
        var p domain.Project
        var linked string
        var created time.Time
        if err := rows.Scan(&p.ID, &p.TenantID, &p.CompanyID, &p.Name, &p.Status, &p.Type, &linked, &created); err != nil {
            return nil, err
        }
        _ = json.Unmarshal([]byte(linked), &p.LinkedAssetIDs)
        p.CreatedAt = created
        out = append(out, &p)
    }
    return out, rows.Err()
}

func (r *GraphRepository) CreateProject(ctx context.Context, tenant string, p *domain.Project) error {
    const q = `
INSERT INTO crm_projects
  (id, tenant_id, company_id, name, status, type, linked_assets_json, created_at)
VALUES (?,?,?,?,?,?,?,?);`
    linked, _ := json.Marshal(p.LinkedAssetIDs)
    createdAt := p.CreatedAt
    if createdAt.IsZero() {
        createdAt = time.Now()
    }
    _, err := r.db.ExecContext(ctx, q, p.ID, tenant, p.CompanyID, p.Name, p.Status, p.Type, string(linked), createdAt)
    return err
}

// LinkAssetToProject idempotent append via read-modify-write
func (r *GraphRepository) LinkAssetToProject(ctx context.Context, tenant string, id domain.ProjectID, assetID string) error {
    const sel = `SELECT linked_assets_json FROM crm_projects WHERE tenant_id=? AND id=? LIMIT 1;`
    var linked string
    if err := r.db.QueryRowContext(ctx, sel, tenant, id).Scan(&linked); err != nil {
        return err
    }
    var ids []string
    _ = json.Unmarshal([]byte(linked), &ids)
    for _, existing := range ids {
        if existing == assetID {
            return nil
        }
    }
    ids = append(ids, assetID)
    updated, err := json.Marshal(ids)
    if err != nil {
        return err
    }
    const upd = `UPDATE crm_projects SET linked_assets_json=? WHERE tenant_id=? AND id=?;`
    _, err = r.db.ExecContext(ctx, upd, string(updated), tenant, id)
    return err
}

func (r *GraphRepository) LogActivity(ctx context.Context, tenant string, a *domain.Activity) error {
    const q = `
INSERT INTO crm_activities (tenant_id, type, payload_json, created_at)
VALUES (?,?,?,?);`
    payload := a.PayloadJSON
    if strings.TrimSpace(payload) == "" {
        payload = "{}"
    }
    createdAt := a.CreatedAt
    if createdAt.IsZero() {
        createdAt = time.Now()
    }
    _, err := r.db.ExecContext(ctx, q, tenant, a.Type, payload, createdAt)
    return err
}

// GetCompany by id (read side)
func (r *GraphRepository) GetCompany(ctx context.Context, tenant string, id domain.CompanyID) (*domain.Company, error) {
    const q = `
SELECT id, tenant_id, name, industry, website, type, tags_json, source, linked_assets_json, created_at
FROM crm_companies
WHERE tenant_id=? AND id=?
LIMIT 1;`
    c, err := scanCompany(r.db.QueryRowContext(ctx, q, tenant, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, err
    }
    return c, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanCompany(row rowScanner) (*domain.Company, error) {
    var c domain.Company
    var tags, linked string
    var created time.Time
    if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Industry, &c.Website, &c.Type, &tags, &c.Source, &linked, &created); err != nil {
        return nil, err
    }
    _ = json.Unmarshal([]byte(tags), &c.Tags)
    _ = json.Unmarshal([]byte(linked), &c.LinkedAssetIDs)
    c.CreatedAt = created
    return &c, nil
}
