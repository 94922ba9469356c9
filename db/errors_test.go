package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("wrapped: %w", gorm.ErrRecordNotFound)), ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "user_settings_user_id_key"}
	err := mapError(dup)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "user_settings_user_id_key")

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bad conn", err: fmt.Errorf("query: %w", driver.ErrBadConn), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "connection exception", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, want: true},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}, want: false},
		{name: "dial refused", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: true},
		{name: "not found", err: gorm.ErrRecordNotFound, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnavailable(tt.err))
		})
	}
}
