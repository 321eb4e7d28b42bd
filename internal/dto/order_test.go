package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/serviceorders/internal/entity"
)

func TestOrderInputToEntityTrims(t *testing.T) {
	in := OrderInput{Reference: "  SO-1 ", Company: "\tAcme\n", Description: " Repair ", Status: "En progreso"}
	order := in.ToEntity()

	require.Equal(t, "SO-1", order.Reference)
	require.Equal(t, "Acme", order.Company)
	require.Equal(t, "Repair", order.Description)
	require.Equal(t, entity.StatusInProgress, order.Status)
	require.Zero(t, order.ID)
}

func TestInputFromEntity(t *testing.T) {
	require.Equal(t, "Pendiente", InputFromEntity(nil).Status)

	order := &entity.ServiceOrder{ID: 3, Reference: "SO-3", Company: "Acme", Description: "Fix", Status: entity.StatusCompleted}
	in := InputFromEntity(order)
	require.Equal(t, OrderInput{Reference: "SO-3", Company: "Acme", Description: "Fix", Status: "Completada"}, in)
}

func TestFromEntities(t *testing.T) {
	require.NotNil(t, FromEntities(nil))

	now := time.Now().UTC()
	out := FromEntities([]entity.ServiceOrder{{ID: 2, Reference: "B", CreatedAt: now}, {ID: 1, Reference: "A"}})
	require.Len(t, out, 2)
	require.Equal(t, int64(2), out[0].ID)
	require.Equal(t, now, out[0].CreatedAt)
}
