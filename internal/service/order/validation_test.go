package order

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/serviceorders/internal/dto"
)

func TestValidate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		in   dto.OrderInput
		want []string
	}{
		{
			name: "valid",
			in:   dto.OrderInput{Reference: "SO-1", Company: "Acme", Description: "Repair", Status: "Pendiente"},
			want: nil,
		},
		{
			name: "every rule fails in field order",
			in:   dto.OrderInput{Status: "Bogus"},
			want: []string{MsgReferenceRequired, MsgCompanyRequired, MsgDescriptionRequired, MsgInvalidStatus},
		},
		{
			name: "whitespace only counts as blank",
			in:   dto.OrderInput{Reference: "   ", Company: "\t", Description: "ok", Status: "Completada"},
			want: []string{MsgReferenceRequired, MsgCompanyRequired},
		},
		{
			name: "status is compared exactly",
			in:   dto.OrderInput{Reference: "SO-1", Company: "Acme", Description: "Repair", Status: " Pendiente"},
			want: []string{MsgInvalidStatus},
		},
		{
			name: "empty status",
			in:   dto.OrderInput{Reference: "SO-1", Company: "Acme", Description: "Repair"},
			want: []string{MsgInvalidStatus},
		},
		{
			name: "description and status",
			in:   dto.OrderInput{Reference: "SO-1", Company: "Acme", Status: "cancelada"},
			want: []string{MsgDescriptionRequired, MsgInvalidStatus},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, v.Validate(tt.in))
		})
	}
}

func TestValidateAcceptsEveryStatus(t *testing.T) {
	v := NewValidator()
	for _, status := range []string{"Pendiente", "En progreso", "Completada", "Cancelada"} {
		in := dto.OrderInput{Reference: "SO-1", Company: "Acme", Description: "Repair", Status: status}
		require.Empty(t, v.Validate(in), status)
	}
}
