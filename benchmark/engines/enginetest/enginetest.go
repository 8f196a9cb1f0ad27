// Package enginetest holds the behaviour every insertion strategy must share, run against a
// real database.
package enginetest

import (
	"context"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "crmbench/benchmark/engines/abstract"
	dbutils "crmbench/dbUtils"
	"crmbench/fixture"
	"crmbench/model"
)

// Run executes the suite. newStrategy receives the connection string of a migrated database.
func Run(t *testing.T, dsn string, newStrategy func(dsn string) engine.Strategy) {
	admin, err := dbutils.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { admin.Close() })

	strategy := newStrategy(dsn)

	cases := []struct {
		name string
		test func(t *testing.T, s engine.Strategy, admin *sqlx.DB)
	}{
		{"ZeroContacts", testZeroContacts},
		{"ThreeContacts", testThreeContacts},
		{"RoundTrip", testRoundTrip},
		{"RollbackOnFailureMidIteration", testRollback},
		{"DuplicateTaxIDWhenUnique", testDuplicateTaxID},
		{"SessionOwnsOneIteration", testSessionPerIteration},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.NoError(t, dbutils.Truncate(context.Background(), admin))
			c.test(t, strategy, admin)
		})
	}
}

func insert(t *testing.T, s engine.Strategy, company model.Company) (model.Company, error) {
	t.Helper()
	ctx := context.Background()
	session, err := s.Open(ctx)
	require.NoError(t, err)
	defer func() { assert.NoError(t, session.Close()) }()
	return session.Insert(ctx, company)
}

func assertRows(t *testing.T, admin *sqlx.DB, companies, contacts int64) {
	t.Helper()
	c, k, err := dbutils.CountRows(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, companies, c, "companies")
	assert.Equal(t, contacts, k, "contacts")
}

func testZeroContacts(t *testing.T, s engine.Strategy, admin *sqlx.DB) {
	out, err := insert(t, s, fixture.New(1).Company(0))
	require.NoError(t, err)

	assert.Positive(t, out.ID)
	assert.Empty(t, out.Contacts)
	assertRows(t, admin, 1, 0)
}

func testThreeContacts(t *testing.T, s engine.Strategy, admin *sqlx.DB) {
	out, err := insert(t, s, fixture.New(2).Company(3))
	require.NoError(t, err)

	require.Len(t, out.Contacts, 3)
	ids := map[int]bool{}
	for _, c := range out.Contacts {
		assert.Equal(t, out.ID, c.CompanyID)
		assert.Positive(t, c.ID)
		ids[c.ID] = true
	}
	assert.Len(t, ids, 3, "contact ids must be distinct")
	assertRows(t, admin, 1, 3)
	assert.NoError(t, dbutils.Verify(context.Background(), admin, out))
}

func testRoundTrip(t *testing.T, s engine.Strategy, admin *sqlx.DB) {
	in := model.Company{
		TaxID: "11222333000181",
		Name:  "Comércio de Pães & Cia.  ",
		City:  "São João d'Aliança",
		Contacts: []model.Contact{
			{Name: "José D'Ávila Ñúñez", Phone: "(61) 98888-7777"},
			{Name: "  Zoë ", Phone: "+55 61 3333-4444"},
		},
	}
	out, err := insert(t, s, in)
	require.NoError(t, err)

	stored, err := dbutils.LoadCompany(context.Background(), admin, out.ID)
	require.NoError(t, err)
	assert.Equal(t, in.TaxID, stored.TaxID)
	assert.Equal(t, in.Name, stored.Name)
	assert.Equal(t, in.City, stored.City)
	require.Len(t, stored.Contacts, 2)
	for i := range in.Contacts {
		assert.Equal(t, in.Contacts[i].Name, stored.Contacts[i].Name)
		assert.Equal(t, in.Contacts[i].Phone, stored.Contacts[i].Phone)
	}
	assert.NoError(t, dbutils.Compare(out, stored))
}

func testRollback(t *testing.T, s engine.Strategy, admin *sqlx.DB) {
	in := fixture.New(3).Company(3)
	// "Telefone" is varchar(30): the second contact fails after the company was inserted
	in.Contacts[1].Phone = strings.Repeat("9", 40)

	out, err := insert(t, s, in)
	require.Error(t, err)
	assert.Equal(t, model.Company{}, out)
	assertRows(t, admin, 0, 0)
}

func testDuplicateTaxID(t *testing.T, s engine.Strategy, admin *sqlx.DB) {
	ctx := context.Background()
	_, err := admin.ExecContext(ctx, `create unique index "UX_Empresas_CNPJ" on "Empresas" ("CNPJ")`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, err := admin.ExecContext(ctx, `drop index if exists "UX_Empresas_CNPJ"`)
		assert.NoError(t, err)
	})

	g := fixture.New(4)
	first := g.Company(2)
	_, err = insert(t, s, first)
	require.NoError(t, err)

	second := g.Company(2)
	second.TaxID = first.TaxID
	_, err = insert(t, s, second)
	require.Error(t, err)
	assertRows(t, admin, 1, 2)
}

func testSessionPerIteration(t *testing.T, s engine.Strategy, admin *sqlx.DB) {
	g := fixture.New(5)
	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		out, err := insert(t, s, g.Company(i))
		require.NoError(t, err)
		assert.False(t, seen[out.ID])
		seen[out.ID] = true
	}
	assertRows(t, admin, 3, 0+1+2)
}
