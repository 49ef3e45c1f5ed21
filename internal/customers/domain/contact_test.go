package domain

import (
	"testing"
	"time"

	shareddomain "crmdash/internal/shared/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRecency(t *testing.T) {
	cust := int64(10)
	contacts := []Contact{
		{ID: 1, CustomerID: &cust, ContactDate: shareddomain.MustParseDate("2024-03-01")},
		{ID: 2},
	}
	now := time.Date(2024, 3, 31, 9, 0, 0, 0, time.UTC)

	out := WithRecency(contacts, now)
	require.Len(t, out, 2)
	require.NotNil(t, out[0].DaysSinceContact)
	assert.Equal(t, 30, *out[0].DaysSinceContact)
	assert.Nil(t, out[1].DaysSinceContact)

	assert.Equal(t, []int64{10}, CustomerIDs(contacts))
}
