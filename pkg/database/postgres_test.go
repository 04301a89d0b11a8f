package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rab-api/pkg/config"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "documents_slug_key"}
	require.True(t, IsUniqueViolation(dup))
	require.True(t, IsUniqueViolation(fmt.Errorf("create document: %w", dup)))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("plain")))
}

func TestConstraintHelpers(t *testing.T) {
	require.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
	require.True(t, IsCheckViolation(fmt.Errorf("insert item: %w", &pq.Error{Code: "23514"})))
	require.False(t, IsCheckViolation(nil))
}

func TestDSNQuotesAwkwardValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "rab",
		Password: "p@ss word's",
		Name:     "rab",
		SSLMode:  "disable",
	})
	require.Equal(t, `host=localhost port=5432 user=rab password='p@ss word\'s' dbname=rab sslmode=disable connect_timeout=10`, dsn)
}

func TestDSNSkipsEmptyValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "rab", Name: "rab"})
	require.NotContains(t, dsn, "password=")
	require.NotContains(t, dsn, "sslmode=")
}

func TestIsNumericOutOfRange(t *testing.T) {
	require.True(t, IsNumericOutOfRange(fmt.Errorf("create item: %w", &pq.Error{Code: "22003"})))
	require.False(t, IsNumericOutOfRange(&pq.Error{Code: "23514"}))
	require.False(t, IsNumericOutOfRange(errors.New("plain")))
}
