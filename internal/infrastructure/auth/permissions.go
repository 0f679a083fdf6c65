package auth

// Permissions checked by the API
const (
	PermissionAll = "*"

	PermissionImportCreate  = "import:create"
	PermissionImportRead    = "import:read"
	PermissionImportApprove = "import:approve"

	PermissionOrderCreate   = "order:create"
	PermissionOrderComplete = "order:complete"
	PermissionOrderRead     = "order:read"

	PermissionCatalogRead   = "catalog:read"
	PermissionCatalogCreate = "catalog:create"

	PermissionFulfillmentRead   = "fulfillment:read"
	PermissionFulfillmentManage = "fulfillment:manage"
)

// AllPermissions lists every concrete permission
var AllPermissions = []string{
	PermissionImportCreate,
	PermissionImportRead,
	PermissionImportApprove,
	PermissionOrderCreate,
	PermissionOrderComplete,
	PermissionOrderRead,
	PermissionCatalogRead,
	PermissionCatalogCreate,
	PermissionFulfillmentRead,
	PermissionFulfillmentManage,
}
