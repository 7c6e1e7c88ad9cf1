package permute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_BankExample(t *testing.T) {
	got := Generate("bank-example.com")

	require.Equal(t, []string{
		"bank-example1.com",
		"bank-examp1e.com",
		"bank-example.com",
		"bank-example-com.com",
		"secure-bank-example.com",
	}, got)
}

func TestGenerate_Homoglyphs(t *testing.T) {
	got := Generate("google.io")

	assert.Contains(t, got, "goog1e.io")
	assert.Contains(t, got, "g00gle.io")
	assert.NotContains(t, got, "g00g1e.io", "homoglyph groups must not combine")
}

func TestGenerate_MultiLabelSuffix(t *testing.T) {
	got := Generate("shop.co.uk")

	require.Len(t, got, 5)
	assert.Equal(t, "shop1.co.uk", got[0])
	assert.Equal(t, "shop-co-uk.com", got[3])
	assert.Equal(t, "secure-shop.co.uk", got[4])
}

func TestGenerate_TooFewLabels(t *testing.T) {
	tests := []string{"", "localhost", "  ", ".com", "example."}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Empty(t, Generate(in))
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first := Generate("paypal.com")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Generate("paypal.com"))
	}
}
