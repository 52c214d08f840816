package posturl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractShortcode_Post(t *testing.T) {
	code, ok := ExtractShortcode("https://www.instagram.com/p/ABC123/")
	require.True(t, ok)
	require.Equal(t, "ABC123", code)
}

func TestExtractShortcode_Reel(t *testing.T) {
	code, ok := ExtractShortcode("https://www.instagram.com/reel/XYZ789")
	require.True(t, ok)
	require.Equal(t, "XYZ789", code)
}

func TestExtractShortcode_AllowedCharacters(t *testing.T) {
	code, ok := ExtractShortcode("https://www.instagram.com/p/Ab9_x-Q/?igsh=1")
	require.True(t, ok)
	require.Equal(t, "Ab9_x-Q", code)
}

func TestExtractShortcode_NoMatch(t *testing.T) {
	_, ok := ExtractShortcode("https://www.instagram.com/someuser/")
	require.False(t, ok)

	_, ok = ExtractShortcode("")
	require.False(t, ok)
}

func TestNormalize_AppendsEmbedSuffix(t *testing.T) {
	require.Equal(t,
		"https://www.instagram.com/p/ABC123/embed/",
		Normalize("https://www.instagram.com/p/ABC123"))
	require.Equal(t,
		"https://www.instagram.com/p/ABC123/embed/",
		Normalize("https://www.instagram.com/p/ABC123/"))
}

func TestNormalize_TrimsWhitespace(t *testing.T) {
	require.Equal(t,
		"https://www.instagram.com/p/ABC123/embed/",
		Normalize("  https://www.instagram.com/p/ABC123/ \n"))
}

func TestNormalize_ExistingEmbedVariant(t *testing.T) {
	require.Equal(t,
		"https://www.instagram.com/p/ABC123/embed/",
		Normalize("https://www.instagram.com/p/ABC123/embed"))
	require.Equal(t,
		"https://www.instagram.com/p/ABC123/embed/",
		Normalize("https://www.instagram.com/p/ABC123/embed/"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"https://www.instagram.com/p/ABC123",
		"https://www.instagram.com/reel/XYZ789/",
		" https://www.instagram.com/p/Q/embed/ ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "input %q", in)
	}
}
