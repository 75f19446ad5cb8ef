package pkgcfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeOptionsEmpty(t *testing.T) {
	require.Equal(t, "{}", SerializeOptions(nil))
	require.Equal(t, "{}", SerializeOptions(map[string]any{}))
}

func TestSerializeOptionsSortsKeys(t *testing.T) {
	a := SerializeOptions(map[string]any{"b": 1, "a": 2})
	require.Equal(t, `{a=2,b=1}`, a)
}

func TestSerializeOptionsOrderIndependent(t *testing.T) {
	opts1 := map[string]any{"z": "x", "a": true, "n": 3}
	opts2 := map[string]any{"a": true, "n": 3, "z": "x"}
	require.Equal(t, SerializeOptions(opts1), SerializeOptions(opts2))
}

func TestSerializeOptionsQuotesStrings(t *testing.T) {
	got := SerializeOptions(map[string]any{"k": `va"l\ue`})
	require.Equal(t, `{k="va\"l\\ue"}`, got)
}

func TestSerializeOptionsNested(t *testing.T) {
	got := SerializeOptions(map[string]any{
		"outer": map[string]any{"inner": int64(1)},
	})
	require.Equal(t, `{outer={inner=1}}`, got)
}

func TestCanonicalKeyEmptyOptionsHasNoBraces(t *testing.T) {
	id, err := ParseIdentity("local.tool@v1")
	require.NoError(t, err)
	require.Equal(t, "local.tool@v1", CanonicalKey(id, nil))
}

func TestCanonicalKeyStableAcrossInsertionOrder(t *testing.T) {
	id, err := ParseIdentity("acme.tool@v1")
	require.NoError(t, err)
	k1 := CanonicalKey(id, map[string]any{"b": int64(1), "a": int64(2)})
	k2 := CanonicalKey(id, map[string]any{"a": int64(2), "b": int64(1)})
	require.Equal(t, k1, k2)
}

func TestOptionsRoundTrip(t *testing.T) {
	cases := []map[string]any{
		{},
		{"a": int64(1), "b": "two", "c": true, "d": nil},
		{"nested": map[string]any{"x": int64(1), "y": []any{int64(1), int64(2), "three"}}},
	}
	for _, opts := range cases {
		ser := SerializeOptions(opts)
		parsed, err := ParseOptions(ser)
		require.NoError(t, err)
		reser := SerializeOptions(parsed)
		require.Equal(t, ser, reser, "round-trip serialization must be stable for %v", opts)
	}
}

func TestParseOptionsRejectsTrailingGarbage(t *testing.T) {
	_, err := ParseOptions("{a=1}garbage")
	require.Error(t, err)
}
