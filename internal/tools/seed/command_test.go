package seed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/campus-portal-backend/internal/database"
)

func TestDescribe(t *testing.T) {
	require.Nil(t, Describe(nil, "x"))
	require.Equal(t, []string{"created owner dean@uni.edu (user 1)"}, Describe(&database.SeedReport{UserID: 1, Created: true}, " Dean@uni.edu "))
	require.Equal(t, []string{"promoted dean@uni.edu to owner (user 2)"}, Describe(&database.SeedReport{UserID: 2, Promoted: true}, "dean@uni.edu"))
	require.Equal(t, []string{"dean@uni.edu is already owner"}, Describe(&database.SeedReport{UserID: 2, Noop: true}, "dean@uni.edu"))
}
