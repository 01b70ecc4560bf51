// Package product provides the handset catalog: the models stock units are
// received against.
package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/types"
)

// Category groups products by device kind.
type Category string

const (
	CategoryPhone  Category = "phone"
	CategoryTablet Category = "tablet"
	CategoryLaptop Category = "laptop"
	CategoryWatch  Category = "watch"
)

// Status is the catalog lifecycle state. Products are retired, never deleted.
type Status string

const (
	StatusActive       Status = "active"
	StatusInactive     Status = "inactive"
	StatusDiscontinued Status = "discontinued"
)

// Allowed option values. An empty value means "not specified".
var (
	StorageOptions = []string{"16gb", "32gb", "64gb", "128gb", "256gb", "512gb", "1tb"}
	RAMOptions     = []string{"4gb", "8gb", "16gb", "32gb", "64gb", "128gb", "256gb", "512gb", "1tb"}
	NetworkOptions = []string{"2g", "3g", "4g", "5g"}
)

// Product is a sellable handset model.
type Product struct {
	ID                  id.ID       `db:"id" json:"id"`
	ItemCode            string      `db:"item_code" json:"itemCode"`
	ModelName           string      `db:"model_name" json:"modelName"`
	ModelSKU            string      `db:"model_sku" json:"modelSku"`
	Category            Category    `db:"category" json:"category"`
	Storage             string      `db:"storage" json:"storage"`
	RAM                 string      `db:"ram" json:"ram"`
	Network             string      `db:"network" json:"network"`
	Price               types.Money `db:"price" json:"price"`
	OtherSpecifications string      `db:"other_specifications" json:"otherSpecifications"`
	Status              Status      `db:"status" json:"status"`
	CreatedOn           time.Time   `db:"created_on" json:"createdOn"`
	CreatedBy           *id.ID      `db:"created_by" json:"createdBy,omitempty"`
	Version             int         `db:"version" json:"version"`
}

// NewProduct creates an active product with a fresh ID.
func NewProduct(itemCode, modelName, modelSKU string, category Category, price types.Money) *Product {
	return &Product{
		ID:        id.New(),
		ItemCode:  itemCode,
		ModelName: modelName,
		ModelSKU:  modelSKU,
		Category:  category,
		Price:     price,
		Status:    StatusActive,
		CreatedOn: time.Now().UTC(),
		Version:   1,
	}
}

// Validate checks required fields and option values.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.ItemCode) == "" {
		return apperror.NewValidation("item code is required").WithDetail("field", "itemCode")
	}
	if strings.TrimSpace(p.ModelName) == "" {
		return apperror.NewValidation("model name is required").WithDetail("field", "modelName")
	}
	if strings.TrimSpace(p.ModelSKU) == "" {
		return apperror.NewValidation("model SKU is required").WithDetail("field", "modelSku")
	}
	if !isValidCategory(p.Category) {
		return apperror.NewValidation("invalid category").
			WithDetail("field", "category").
			WithDetail("value", string(p.Category))
	}
	if !IsValidStatus(p.Status) {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}
	if err := validateOption("storage", p.Storage, StorageOptions); err != nil {
		return err
	}
	if err := validateOption("ram", p.RAM, RAMOptions); err != nil {
		return err
	}
	if err := validateOption("network", p.Network, NetworkOptions); err != nil {
		return err
	}
	if !types.ValidPrice(p.Price) {
		return apperror.NewValidation("price must be a non-negative amount with at most two decimals").
			WithDetail("field", "price").
			WithDetail("value", p.Price.String())
	}
	return nil
}

// IsActive reports whether new stock may be received against the product.
func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

// DisplayName renders "Model NETWORK (RAM+STORAGE)", e.g. "Galaxy A15 4g (8gb+256gb)".
func (p *Product) DisplayName() string {
	return fmt.Sprintf("%s %s (%s+%s)", p.ModelName, p.Network, p.RAM, p.Storage)
}

// auditState is the field set compared when logging changes.
func (p *Product) auditState() map[string]any {
	return map[string]any{
		"itemCode":            p.ItemCode,
		"modelName":           p.ModelName,
		"modelSku":            p.ModelSKU,
		"category":            p.Category,
		"storage":             p.Storage,
		"ram":                 p.RAM,
		"network":             p.Network,
		"price":               p.Price.StringFixed(types.PriceScale),
		"otherSpecifications": p.OtherSpecifications,
		"status":              p.Status,
	}
}

// --- Validation Helpers ---

func isValidCategory(c Category) bool {
	switch c {
	case CategoryPhone, CategoryTablet, CategoryLaptop, CategoryWatch:
		return true
	}
	return false
}

// IsValidStatus reports whether s is a known catalog status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusDiscontinued:
		return true
	}
	return false
}

func validateOption(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return apperror.NewValidation("invalid "+field).
		WithDetail("field", field).
		WithDetail("value", value)
}
