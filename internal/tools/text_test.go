package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractQuantity(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		qty     float64
		cleaned string
		found   bool
	}{
		{name: "attached unit", text: "2kg tomatoes", qty: 2, cleaned: "tomatoes", found: true},
		{name: "spaced unit", text: "3 kg onions", qty: 3, cleaned: "onions", found: true},
		{name: "fractional", text: "1.5kg spinach", qty: 1.5, cleaned: "spinach", found: true},
		{name: "token in middle", text: "buy 2kg tomatoes", qty: 2, cleaned: "buy tomatoes", found: true},
		{name: "uppercase unit", text: "2KG mangoes", qty: 2, cleaned: "mangoes", found: true},
		{name: "no token", text: "tomatoes", cleaned: "tomatoes", found: false},
		{name: "kg inside word", text: "bakghana beans", cleaned: "bakghana beans", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qty, cleaned, found := extractQuantity(tc.text)
			require.Equal(t, tc.found, found)
			require.Equal(t, tc.cleaned, cleaned)
			if tc.found {
				require.Equal(t, tc.qty, qty)
			}
		})
	}
}

func TestIsPhoneNumber(t *testing.T) {
	require.True(t, isPhoneNumber("9876543210"))
	require.True(t, isPhoneNumber(" 9876543210 "))
	require.False(t, isPhoneNumber("987654321"))
	require.False(t, isPhoneNumber("98765432100"))
	require.False(t, isPhoneNumber("ORD-12345"))
	require.False(t, isPhoneNumber("98765a4321"))
	require.False(t, isPhoneNumber(""))
}
