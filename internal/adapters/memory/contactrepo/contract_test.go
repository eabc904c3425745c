package contactrepo

import (
	"testing"

	"github.com/Overland-East-Bay/contact-manager/internal/adapters/contracttest"
	platformclock "github.com/Overland-East-Bay/contact-manager/internal/platform/clock"
	contactrepoport "github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

func TestContract_ContactRepo(t *testing.T) {
	contracttest.RunContactRepo(t, func(t *testing.T) (contactrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(platformclock.NewSystemClock()), nil
	})
}

func TestContract_ContactRepoFilters(t *testing.T) {
	contracttest.RunContactRepoFilters(t, func(t *testing.T) (contactrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(platformclock.NewSystemClock()), nil
	})
}
