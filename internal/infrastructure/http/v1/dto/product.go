package dto

import (
	"dsrsales/internal/core/types"
	"dsrsales/internal/domain/catalog/product"
)

// ProductRequest is the body of product create and update.
type ProductRequest struct {
	ItemCode            string           `json:"itemCode" binding:"required"`
	ModelName           string           `json:"modelName" binding:"required"`
	ModelSKU            string           `json:"modelSku" binding:"required"`
	Category            product.Category `json:"category" binding:"required,oneof=phone tablet laptop watch"`
	Storage             string           `json:"storage"`
	RAM                 string           `json:"ram"`
	Network             string           `json:"network"`
	Price               types.Money      `json:"price"`
	OtherSpecifications string           `json:"otherSpecifications"`
	Status              product.Status   `json:"status" binding:"omitempty,oneof=active inactive discontinued"`
	Version             int              `json:"version" binding:"omitempty,min=1"`
}

// ToEntity converts DTO to domain entity.
func (r *ProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.ItemCode, r.ModelName, r.ModelSKU, r.Category, r.Price)
	p.Storage = r.Storage
	p.RAM = r.RAM
	p.Network = r.Network
	p.OtherSpecifications = r.OtherSpecifications
	if r.Status != "" {
		p.Status = r.Status
	}
	return p
}

// ApplyTo copies the editable fields onto an existing product.
func (r *ProductRequest) ApplyTo(p *product.Product) {
	p.ItemCode = r.ItemCode
	p.ModelName = r.ModelName
	p.ModelSKU = r.ModelSKU
	p.Category = r.Category
	p.Storage = r.Storage
	p.RAM = r.RAM
	p.Network = r.Network
	p.Price = r.Price
	p.OtherSpecifications = r.OtherSpecifications
	if r.Status != "" {
		p.Status = r.Status
	}
	if r.Version > 0 {
		p.Version = r.Version
	}
}

// SetProductStatusRequest for POST /products/:id/status.
type SetProductStatusRequest struct {
	Status product.Status `json:"status" binding:"required,oneof=active inactive discontinued"`
}

// ProductListQuery for GET /products.
type ProductListQuery struct {
	ListQuery
	Status   product.Status   `form:"status"`
	Category product.Category `form:"category"`
}

// ToFilter converts query parameters to the domain filter.
func (q ProductListQuery) ToFilter() product.Filter {
	return product.Filter{
		ListFilter: q.ListQuery.ToFilter(),
		Status:     q.Status,
		Category:   q.Category,
	}
}

// ProductResponse is a product with its rendered display name.
type ProductResponse struct {
	*product.Product
	DisplayName string `json:"displayName"`
}

// FromProduct creates response from domain product.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{Product: p, DisplayName: p.DisplayName()}
}
