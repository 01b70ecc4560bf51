package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain/auth"
	"dsrsales/internal/domain/inventory"
)

func TestExtractDBColumns_FlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[auth.User]()

	for _, expected := range []string{"id", "username", "password_hash", "version", "full_name", "user_group", "national_id"} {
		assert.Contains(t, cols, expected)
	}
	assert.Equal(t, "id", cols[0])
}

func TestStructToMap(t *testing.T) {
	imei := "356789012345678"
	s := inventory.Stock{
		ID:           id.New(),
		SerialNumber: "SER-1",
		IMEINumber:   &imei,
		Status:       inventory.StatusInStock,
		StockInDate:  time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	m := StructToMap(&s)
	assert.Equal(t, s.ID, m["id"])
	assert.Equal(t, &imei, m["imei_number"])
	assert.Equal(t, inventory.StatusInStock, m["status"])
	assert.Nil(t, StructToMap(42))

	vals := StructValues(s, []string{"serial_number", "missing", "status"})
	assert.Equal(t, []any{"SER-1", nil, inventory.StatusInStock}, vals)
}

func TestStructToMap_EmbeddedProfile(t *testing.T) {
	u := auth.User{Username: "alice", Profile: auth.Profile{FullName: "Alice", Group: "north"}}

	m := StructToMap(u)
	assert.Equal(t, "alice", m["username"])
	assert.Equal(t, "Alice", m["full_name"])
	assert.Equal(t, "north", m["user_group"])
}

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{"name": "p.model_name", "price": "p.price"}

	assert.Equal(t, "p.model_name ASC", OrderBy("name", allowed, "p.created_on DESC"))
	assert.Equal(t, "p.price DESC", OrderBy("-price", allowed, "p.created_on DESC"))
	assert.Equal(t, "p.created_on DESC", OrderBy("password", allowed, "p.created_on DESC"))
	assert.Equal(t, "p.created_on DESC", OrderBy("", allowed, "p.created_on DESC"))
}

func TestSearchAny(t *testing.T) {
	sql, args, err := SearchAny("50%_a", "name", "phone").ToSql()
	assert.NoError(t, err)
	assert.Equal(t, "(name ILIKE ? OR phone ILIKE ?)", sql)
	assert.Equal(t, []any{`%50\%\_a%`, `%50\%\_a%`}, args)
}
