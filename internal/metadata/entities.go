package metadata

import (
	"dsrsales/internal/domain/auth"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/domain/inventory"
	"dsrsales/internal/domain/sales"
)

// Entity names.
const (
	EntityProduct  = "product"
	EntityStock    = "stock"
	EntityCustomer = "customer"
	EntitySale     = "sale"
	EntityUser     = "user"
)

// Default builds the registry of every searchable entity.
func Default() *Registry {
	r := NewRegistry()

	r.Register(EntityDef{
		Name:         EntityProduct,
		Label:        "Products",
		Type:         TypeCatalog,
		TableName:    "products",
		SearchFields: []string{"model_name", "model_sku", "item_code"},
		ListColumns:  []string{"id", "item_code", "model_name", "model_sku", "category", "price", "status"},
		Fields:       Inspect(product.Product{}),
	})
	r.Register(EntityDef{
		Name:         EntityStock,
		Label:        "Stock",
		Type:         TypeRegister,
		TableName:    "stocks",
		SearchFields: []string{"imei_number", "serial_number", "status"},
		ListColumns:  []string{"id", "serial_number", "imei_number", "status", "stock_in_date"},
		Fields:       Inspect(inventory.Stock{}),
	})
	r.Register(EntityDef{
		Name:         EntityCustomer,
		Label:        "Customers",
		Type:         TypeCatalog,
		TableName:    "customers",
		SearchFields: []string{"name", "phone", "email", "id_number"},
		ListColumns:  []string{"id", "name", "phone", "email"},
		Fields:       Inspect(sales.Customer{}),
	})
	r.Register(EntityDef{
		Name:         EntitySale,
		Label:        "Sales",
		Type:         TypeDocument,
		TableName:    "sales",
		SearchFields: []string{"order_id"},
		ListColumns:  []string{"id", "order_id", "sold_at", "is_returned"},
		Fields:       Inspect(sales.Sale{}),
	})
	r.Register(EntityDef{
		Name:         EntityUser,
		Label:        "Users",
		Type:         TypeCatalog,
		TableName:    "users",
		SearchFields: []string{"username", "full_name", "email"},
		ListColumns:  []string{"id", "username", "full_name", "role", "region"},
		Fields:       Inspect(auth.User{}),
	})

	return r
}
