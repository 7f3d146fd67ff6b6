package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunHealthcheckTests(t *testing.T) {
	s := suite.NewStore(t)
	require.NoError(t, s.Healthcheck(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Healthcheck(ctx))

	require.NoError(t, s.Close())
	assert.Error(t, s.Healthcheck(context.Background()))
}
