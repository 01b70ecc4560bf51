// Package document_repo provides PostgreSQL implementations for sale documents.
package document_repo

import (
	"dsrsales/internal/domain/sales"
	"dsrsales/internal/infrastructure/storage/postgres"
)

// prefixed qualifies columns with a table alias.
func prefixed(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return out
}

// saleColumns lists the sales table columns in struct order.
var saleColumns = postgres.ExtractDBColumns[sales.Sale]()
