package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Status is the workflow label of a service order. Any status may move to any other.
type Status string

const (
	StatusPending    Status = "Pendiente"
	StatusInProgress Status = "En progreso"
	StatusCompleted  Status = "Completada"
	StatusCancelled  Status = "Cancelada"
)

var statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Statuses lists the allowed statuses in display order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

// Valid reports whether s is one of the allowed statuses. The comparison is exact.
func (s Status) Valid() bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ServiceOrder is a service order stored in the relational database.
type ServiceOrder struct {
	bun.BaseModel `bun:"table:service_orders,alias:so"`

	ID          int64     `bun:",pk,autoincrement" json:"id"`
	Reference   string    `bun:"reference,notnull,unique" json:"reference"`
	Company     string    `bun:"company,notnull" json:"company"`
	Description string    `bun:"description,notnull" json:"description"`
	Status      Status    `bun:"status,notnull,default:'Pendiente'" json:"status"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}
