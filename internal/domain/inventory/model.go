// Package inventory tracks individual handset units through their lifecycle:
// received into stock, allocated to a seller, sold, returned.
package inventory

import (
	"time"

	"dsrsales/internal/core/id"
	"dsrsales/internal/core/types"
)

// Status is the lifecycle state of a unit.
type Status string

const (
	StatusInStock  Status = "in_stock"
	StatusAssigned Status = "assigned"
	StatusSold     Status = "sold"
	StatusReturned Status = "returned"
)

// IsValidStatus reports whether s is a known stock status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusInStock, StatusAssigned, StatusSold, StatusReturned:
		return true
	}
	return false
}

// Stock is a single physical unit identified by serial number and IMEI.
type Stock struct {
	ID               id.ID      `db:"id" json:"id"`
	SerialNumber     string     `db:"serial_number" json:"serialNumber"`
	IMEINumber       *string    `db:"imei_number" json:"imeiNumber,omitempty"`
	ProductID        id.ID      `db:"product_id" json:"productId"`
	StockInDate      time.Time  `db:"stock_in_date" json:"stockInDate"`
	AddedBy          *id.ID     `db:"added_by" json:"addedBy,omitempty"`
	Status           Status     `db:"status" json:"status"`
	AssignedTo       *id.ID     `db:"assigned_to" json:"assignedTo,omitempty"`
	LastAssignedDate *time.Time `db:"last_assigned_date" json:"lastAssignedDate,omitempty"`
	ReleasedAt       *time.Time `db:"released_at" json:"releasedAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}

// IMEI returns the IMEI or an empty string.
func (s *Stock) IMEI() string {
	if s.IMEINumber == nil {
		return ""
	}
	return *s.IMEINumber
}

// Label identifies the unit in messages: IMEI when known, else serial.
func (s *Stock) Label() string {
	if imei := s.IMEI(); imei != "" {
		return imei
	}
	return s.SerialNumber
}

// DaysInStock is the number of whole days between stock-in and today.
func (s *Stock) DaysInStock(today time.Time) int {
	in := truncateDay(s.StockInDate)
	return int(truncateDay(today).Sub(in).Hours() / 24)
}

// IsHeldBy reports whether the unit is assigned to userID.
func (s *Stock) IsHeldBy(userID id.ID) bool {
	return s.Status == StatusAssigned && s.AssignedTo != nil && *s.AssignedTo == userID
}

// IsReleased reports whether the unit came back through an undone sale and
// has not been received again since. Only released units accept a fresh add
// of their IMEI.
func (s *Stock) IsReleased() bool {
	return s.Status == StatusInStock && s.ReleasedAt != nil
}

// CanAllocate reports whether the unit may be handed to a seller.
// Returned units are back in the pool.
func (s *Stock) CanAllocate() bool {
	switch s.Status {
	case StatusInStock, StatusAssigned, StatusReturned:
		return true
	}
	return false
}

// StockView is a stock row joined with its product and holder for listings.
type StockView struct {
	Stock

	ProductName     string      `db:"product_name" json:"productName"`
	ModelSKU        string      `db:"model_sku" json:"modelSku"`
	Category        string      `db:"category" json:"category"`
	Price           types.Money `db:"price" json:"price"`
	HolderUsername  *string     `db:"holder_username" json:"holderUsername,omitempty"`
	AddedByUsername *string     `db:"added_by_username" json:"addedByUsername,omitempty"`
}

// Action classifies a history row.
type Action string

const (
	ActionAdded        Action = "added"
	ActionAssigned     Action = "assigned"
	ActionReturned     Action = "returned"
	ActionSold         Action = "sold"
	ActionStatusChange Action = "status_change"
	ActionAllocated    Action = "allocated"
)

// HistoryEntry is an immutable audit row describing one change to a unit.
type HistoryEntry struct {
	ID              id.ID     `db:"id" json:"id"`
	StockID         id.ID     `db:"stock_id" json:"stockId"`
	Action          Action    `db:"action" json:"action"`
	PerformedBy     *id.ID    `db:"performed_by" json:"performedBy,omitempty"`
	TransferredFrom *id.ID    `db:"transferred_from" json:"transferredFrom,omitempty"`
	TransferredTo   *id.ID    `db:"transferred_to" json:"transferredTo,omitempty"`
	PerformedOn     time.Time `db:"performed_on" json:"performedOn"`
	Details         string    `db:"details" json:"details"`
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
