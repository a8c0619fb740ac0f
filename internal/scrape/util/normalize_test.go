package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"  Bella   Pizza  ":        "Bella Pizza",
		"12 Elm St":            "12 Elm St",
		"\n\t spread \n across \t ": "spread across",
		"":                          "",
		"   ":                       "",
	}
	for in, want := range cases {
		require.Equal(t, want, CleanText(in), "input %q", in)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"Phone: +1 203-555-1212": "+12035551212",
		"tel:+31 20 555 0101":    "+31205550101",
		"Call (020) 555 0101":    "0205550101",
		"+47 22 33 44 55":        "+4722334455",
		"555-0101":               "5550101",
		"1+2":                    "12",
		"no digits here":         "",
		"":                       "",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizePhone(in), "input %q", in)
	}
}

func TestCountDigits(t *testing.T) {
	require.Equal(t, 0, CountDigits(""))
	require.Equal(t, 0, CountDigits("abc+"))
	require.Equal(t, 6, CountDigits("12-34-56"))
	require.Equal(t, 11, CountDigits("+1 (203) 555-1212"))
}
