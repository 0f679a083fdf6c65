package catalog

import (
	"context"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductService handles catalog product operations
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// Create creates a catalog product that was not imported from a source platform
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(tenantID, req.Name, req.Price, req.Currency)
	if err != nil {
		return nil, err
	}
	product.SetDescription(req.Description)
	product.SetImages(req.Images)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List lists products with filtering and pagination
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  map[string]interface{}{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Platform != "" {
		f.Filters["source_platform"] = filter.Platform
	}
	if filter.Search != "" {
		f.Filters["search"] = filter.Search
	}
	f = f.Normalize()

	page, err := s.productRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, len(page.Items))
	for i := range page.Items {
		items[i] = ToProductResponse(&page.Items[i])
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}
