package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerProduction(t *testing.T) {
	require.NoError(t, InitLogger("production"))
	assert.NotNil(t, GetLogger())
	SyncLogger()
}

func TestInitLoggerDevelopment(t *testing.T) {
	require.NoError(t, InitLogger("development"))
	assert.NotNil(t, GetLogger())
}

func TestGetLoggerWithoutInit(t *testing.T) {
	logger = nil
	assert.NotNil(t, GetLogger())
}
