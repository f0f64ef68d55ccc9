package dataloader_test

import (
	"testing"

	"saltapi/testutil"
)

func TestEngineIsStoreAgnostic(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "the batching engine must not know the backing store")
}
