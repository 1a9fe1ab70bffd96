package profilerepo

import (
	"testing"

	"github.com/wayfarer-app/account-api/internal/adapters/contracttest"
	"github.com/wayfarer-app/account-api/internal/adapters/postgres/testutil"
	profilerepoport "github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
)

func TestContract_PostgresProfileRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunProfileRepo(t, func(t *testing.T) (profilerepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
