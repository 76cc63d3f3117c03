package memory

import (
	"testing"

	"github.com/code-payments/code-payout-server/pkg/code/data/payout/tests"
)

func TestPayoutMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}

	tests.RunTests(t, testStore, teardown)
}
