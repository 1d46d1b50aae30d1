package crm

import "context"

// Graph port (interface untuk relationship graph eksternal).
// UpsertCompanyByName is a single conditional insert so that concurrent runs for
// the same newly-seen brand cannot create duplicates.
type Graph interface {
	SearchCompanies(ctx context.Context, tenant, query string) ([]*Company, error)
	GetCompany(ctx context.Context, tenant string, id CompanyID) (*Company, error)
	UpsertCompanyByName(ctx context.Context, tenant string, c *Company) (*Company, error)
	UpdateCompanyAssets(ctx context.Context, tenant string, id CompanyID, assetIDs []string) error
	SearchProjects(ctx context.Context, tenant string, companyID CompanyID) ([]*Project, error)
	CreateProject(ctx context.Context, tenant string, p *Project) error
	LinkAssetToProject(ctx context.Context, tenant string, id ProjectID, assetID string) error
	LogActivity(ctx context.Context, tenant string, a *Activity) error
}
