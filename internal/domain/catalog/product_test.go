package catalog

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active product with defaults", func(t *testing.T) {
		p, err := NewProduct(tenantID, "  Desk Lamp ", decimal.RequireFromString("19.999"), "")
		require.NoError(t, err)

		assert.Equal(t, "Desk Lamp", p.Name)
		assert.Equal(t, "20", p.Price.String())
		assert.Equal(t, "USD", p.Currency)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.Equal(t, tenantID, p.TenantID)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeProductCreated, p.GetDomainEvents()[0].EventType())
	})

	t.Run("allows negative price", func(t *testing.T) {
		p, err := NewProduct(tenantID, "Lamp", decimal.NewFromInt(-5), "eur")
		require.NoError(t, err)
		assert.True(t, p.Price.IsNegative())
		assert.Equal(t, "EUR", p.Currency)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProduct(tenantID, "   ", decimal.NewFromInt(1), "USD")
		assert.Error(t, err)
	})
}

func TestProduct_SetImagesCapsAtFive(t *testing.T) {
	p, err := NewProduct(uuid.New(), "Lamp", decimal.NewFromInt(1), "USD")
	require.NoError(t, err)

	images := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		images = append(images, fmt.Sprintf("https://img.example.com/%d.jpg", i))
	}
	images = append([]string{""}, images...)

	p.SetImages(images)
	assert.Len(t, p.Images, MaxProductImages)
	assert.Equal(t, "https://img.example.com/0.jpg", p.Images[0])
}

func TestProvenance_Matches(t *testing.T) {
	tests := []struct {
		name     string
		source   Provenance
		platform string
		want     bool
	}{
		{"same platform", Provenance{Platform: "aliexpress", URL: "https://a/1"}, "aliexpress", true},
		{"case insensitive", Provenance{Platform: "AliExpress", URL: "https://a/1"}, "aliexpress", true},
		{"other platform", Provenance{Platform: "temu", URL: "https://t/1"}, "aliexpress", false},
		{"missing url", Provenance{Platform: "aliexpress"}, "aliexpress", false},
		{"manual product", Provenance{}, "aliexpress", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.source.Matches(tt.platform))
		})
	}
}

func TestProduct_Deactivate(t *testing.T) {
	p, err := NewProduct(uuid.New(), "Lamp", decimal.NewFromInt(1), "USD")
	require.NoError(t, err)

	require.NoError(t, p.Deactivate())
	assert.False(t, p.IsActive())
	assert.Error(t, p.Deactivate())
}
