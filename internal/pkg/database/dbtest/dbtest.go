// Package dbtest prepara o Postgres usado pelos testes de integração dos repositórios.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"stockflow/internal/pkg/database"
	"stockflow/migrations"
)

// EnvDSN aponta para um banco descartável: Open trunca todas as tabelas.
const EnvDSN = "TEST_DATABASE_URL"

// Open conecta ao banco de teste, aplica as migrations e limpa os dados.
// Sem EnvDSN definido o teste é pulado.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skip(EnvDSN + " não definido")
	}

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, dsn, database.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db.DB, migrations.FS, "."))
	_, err = db.ExecContext(ctx, `TRUNCATE transfers, delivery_items, deliveries, receipt_items, receipts, stock, warehouses, products CASCADE`)
	require.NoError(t, err)
	return db
}
