package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("connection refused"), want: false},
		{name: "sqlite", err: errors.New("constraint failed: UNIQUE constraint failed: service_orders.reference (2067)"), want: true},
		{name: "wrapped sqlite", err: fmt.Errorf("insert: %w", errors.New("UNIQUE constraint failed: service_orders.reference")), want: true},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'SO-1'"}, want: true},
		{name: "mysql other", err: &mysql.MySQLError{Number: 1048, Message: "Column cannot be null"}, want: false},
		{name: "sqlite not null", err: errors.New("NOT NULL constraint failed: service_orders.company"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
