package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsrsales/internal/domain/inventory"
)

func fieldByName(fields []FieldDef, name string) (FieldDef, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

func TestDefault_RegistersEveryEntity(t *testing.T) {
	r := Default()

	names := make([]string, 0)
	for _, def := range r.List() {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.TableName, def.Name)
		assert.NotEmpty(t, def.SearchFields, def.Name)
		assert.Equal(t, "id", def.ListColumns[0], def.Name)
	}
	assert.Equal(t, []string{"customer", "product", "sale", "stock", "user"}, names)

	_, ok := r.Get("warehouse")
	assert.False(t, ok)
}

func TestInspect(t *testing.T) {
	fields := Inspect(&inventory.Stock{})

	f, ok := fieldByName(fields, "productId")
	require.True(t, ok)
	assert.Equal(t, TypeReference, f.Type)
	assert.Equal(t, "product", f.ReferenceType)

	f, ok = fieldByName(fields, "assignedTo")
	require.True(t, ok)
	assert.Equal(t, "user", f.ReferenceType)

	f, ok = fieldByName(fields, "stockInDate")
	require.True(t, ok)
	assert.Equal(t, TypeDate, f.Type)

	f, ok = fieldByName(fields, "id")
	require.True(t, ok)
	assert.True(t, f.ReadOnly)

	userDef, _ := Default().Get(EntityUser)
	_, hasHash := fieldByName(userDef.Fields, "passwordHash")
	assert.False(t, hasHash)
	_, hasProfile := fieldByName(userDef.Fields, "fullName")
	assert.True(t, hasProfile)

	productDef, _ := Default().Get(EntityProduct)
	price, ok := fieldByName(productDef.Fields, "price")
	require.True(t, ok)
	assert.Equal(t, TypeMoney, price.Type)
}

func TestGuessLabel(t *testing.T) {
	assert.Equal(t, "Model SKU", guessLabel("ModelSKU"))
	assert.Equal(t, "Stock In Date", guessLabel("StockInDate"))
	assert.Equal(t, "IMEI Number", guessLabel("IMEINumber"))
}
