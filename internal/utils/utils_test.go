package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrencyAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1500", 1500, false},
		{"$1,500.00", 1500, false},
		{"1500 USD", 1500, false},
		{"C$99.50", 99.5, false},
		{"  750 ", 750, false},
		{"", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCurrencyAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$750.00", FormatCurrency(750, "USD"))
	assert.Equal(t, "€12.50", FormatCurrency(12.5, "eur"))
	assert.Equal(t, "$1.00", FormatCurrency(1, "XXX"))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(63750), ToMinorUnits(637.5))
	assert.Equal(t, int64(8999), ToMinorUnits(89.99))
	assert.Equal(t, 89.99, FromMinorUnits(8999))
}

func TestGetPaginationParamsClampsValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=-3&page_size=1000&sort=password&order=sideways", nil)

	params := GetPaginationParams(c)

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, MaxPageSize, params.PageSize)
	assert.Equal(t, "created_at", params.Sort)
	assert.Equal(t, "desc", params.Order)
}

func TestCreatePaginationMeta(t *testing.T) {
	meta := CreatePaginationMeta(&PaginationParams{Page: 2, PageSize: 10}, 25)

	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)
	require.NotNil(t, meta.NextPage)
	assert.Equal(t, 3, *meta.NextPage)
}

func TestTokenPairRoundTrip(t *testing.T) {
	pair, err := GenerateTokenPair("uid-1", "client@example.com", "client", "secret", time.Hour, 2*time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(pair.AccessToken, "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "client@example.com", claims.Email)

	_, err = ValidateAccessToken(pair.RefreshToken, "secret")
	assert.Error(t, err)

	_, err = ValidateAccessToken(pair.AccessToken, "other-secret")
	assert.Error(t, err)

	refreshed, err := RefreshAccessToken(pair.RefreshToken, "secret", time.Hour, 2*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestPhoneHelpers(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone("1 555 123 4567"))
	assert.True(t, IsValidPhone("+1 (555) 123-4567"))
	assert.False(t, IsValidPhone("1"))
	assert.False(t, IsValidPhone("12"))
	assert.False(t, IsValidPhone("+1234567"))
	assert.True(t, IsValidPhone("+12345678"))
	assert.Equal(t, "********4567", MaskPhone("+15551234567"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "c****t@example.com", MaskEmail("client@example.com"))
	assert.True(t, IsValidEmail("client@example.com"))
	assert.False(t, IsValidEmail("client@"))
}
