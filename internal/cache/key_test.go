package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("financial-overview", "v1", "draft", []string{"dep text"}, "fp1")
	b := Key("financial-overview", "v1", "draft", []string{"dep text"}, "fp1")
	require.Equal(t, a, b)
}

func TestKeyDistinguishesEveryComponent(t *testing.T) {
	base := Key("financial-overview", "v1", "draft", []string{"dep"}, "fp1")
	variants := []string{
		Key("swot-analysis", "v1", "draft", []string{"dep"}, "fp1"),
		Key("financial-overview", "v2", "draft", []string{"dep"}, "fp1"),
		Key("financial-overview", "v1", "fact_refine", []string{"dep"}, "fp1"),
		Key("financial-overview", "v1", "draft", []string{"other"}, "fp1"),
		Key("financial-overview", "v1", "draft", []string{"dep"}, "fp2"),
		Key("financial-overview", "v1", "draft", nil, "fp1"),
	}
	for i, v := range variants {
		require.NotEqual(t, base, v, "variant %d collided", i)
	}
}

func TestKeyInputBoundariesDoNotAlias(t *testing.T) {
	a := Key("s", "v1", "draft", []string{"ab", "c"}, "fp")
	b := Key("s", "v1", "draft", []string{"a", "bc"}, "fp")
	require.NotEqual(t, a, b)
}
