package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestSavedPostStampsSaveTime(t *testing.T) {
	s, err := schema.Parse(&SavedPost{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	field := s.LookUpField("SavedAt")
	require.NotNil(t, field)
	// SavedAt is not named CreatedAt, so it only gets stamped on insert
	// through the autoCreateTime tag.
	assert.NotZero(t, field.AutoCreateTime, "saved_at must be filled by the store on insert")
}
