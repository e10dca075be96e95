package doc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyPatchesInOrder(t *testing.T) {
	markup := "<h1>Old</h1><p>text</p>"
	out, applied := ApplyPatches(markup, []PatchOperation{
		{Search: "<h1>Old</h1>", Replace: "<h1>New</h1>"},
		{Search: "<p>text</p>", Replace: "<p>updated</p>"},
	})
	require.True(t, applied)
	require.Equal(t, "<h1>New</h1><p>updated</p>", out)
}

func TestApplyPatchesFirstMatchOnly(t *testing.T) {
	out, applied := ApplyPatches("aXbXc", []PatchOperation{{Search: "X", Replace: "Y"}})
	require.True(t, applied)
	require.Equal(t, "aYbXc", out)
}

func TestApplyPatchesNotApplicable(t *testing.T) {
	markup := "<h1>Old</h1>"
	out, applied := ApplyPatches(markup, []PatchOperation{
		{Search: "<h1>Old</h1>", Replace: "<h1>New</h1>"},
		{Search: "<h2>Gone</h2>", Replace: "<h2>x</h2>"},
	})
	// вторая операция не нашлась — наружу уходит исходник целиком
	require.False(t, applied)
	require.Equal(t, markup, out)
}

func TestApplyPatchesChainOnPatchedText(t *testing.T) {
	// search может попадать в результат предыдущей замены
	out, applied := ApplyPatches("<p>a</p>", []PatchOperation{
		{Search: "<p>a</p>", Replace: "<div>a</div>"},
		{Search: "<div>a</div>", Replace: "<div>b</div>"},
	})
	require.True(t, applied)
	require.Equal(t, "<div>b</div>", out)
}

func TestApplyPatchesEmptySearch(t *testing.T) {
	out, applied := ApplyPatches("abc", []PatchOperation{{Search: "", Replace: "x"}})
	require.False(t, applied)
	require.Equal(t, "abc", out)
}

func TestApplyPatchesDeletion(t *testing.T) {
	out, applied := ApplyPatches("a<b>c", []PatchOperation{{Search: "<b>", Replace: ""}})
	require.True(t, applied)
	require.Equal(t, "ac", out)
}
