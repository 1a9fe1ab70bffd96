package profilerepo

import (
	"testing"

	"github.com/wayfarer-app/account-api/internal/adapters/contracttest"
	profilerepoport "github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
)

func TestContract_MemoryProfileRepo(t *testing.T) {
	t.Parallel()

	contracttest.RunProfileRepo(t, func(t *testing.T) (profilerepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
