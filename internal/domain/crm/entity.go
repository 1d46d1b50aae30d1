package crm

import "time"

// CompanyID / ProjectID identifier types
type CompanyID string
type ProjectID string

// Company CRM entity; this core creates and patches, never deletes
type Company struct {
	ID             CompanyID `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	Industry       string    `json:"industry"`
	Website        string    `json:"website,omitempty"`
	Type           string    `json:"type"` // auto-discovered brands are always "client"
	Tags           []string  `json:"tags,omitempty"`
	Source         string    `json:"source,omitempty"`
	LinkedAssetIDs []string  `json:"linked_asset_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Project CRM entity
type Project struct {
	ID             ProjectID `json:"id"`
	TenantID       string    `json:"tenant_id"`
	CompanyID      CompanyID `json:"company_id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	Type           string    `json:"type"`
	LinkedAssetIDs []string  `json:"linked_asset_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Activity audit log record
type Activity struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Type        string    `json:"type"`
	PayloadJSON string    `json:"payload_json"`
	CreatedAt   time.Time `json:"created_at"`
}

// LinkResult ids hasil linking brand ke graph
type LinkResult struct {
	CompanyID CompanyID `json:"company_id"`
	ProjectID ProjectID `json:"project_id"`
}

// HasAsset reports whether the asset id is already linked to the company.
func (c *Company) HasAsset(assetID string) bool {
	for _, id := range c.LinkedAssetIDs {
		if id == assetID {
			return true
		}
	}
	return false
}
