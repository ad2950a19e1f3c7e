package scrape

import (
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndQuery(t *testing.T) {
	t.Parallel()

	doc, err := Parse(strings.NewReader(`<html><body>
		<div class="a" data-x="1">one <b>two</b></div>
		<div class="a">three</div>
	</body></html>`))
	require.NoError(t, err)

	sel := cascadia.MustCompile("div.a")
	nodes := All(doc, sel)
	require.Len(t, nodes, 2)
	assert.Equal(t, "one two", Text(nodes[0]))
	assert.Equal(t, "1", Attr(nodes[0], "data-x"))
	assert.Empty(t, Attr(nodes[1], "data-x"))
	assert.Equal(t, nodes[0], First(doc, sel))

	assert.Nil(t, First(nil, sel))
	assert.Empty(t, Text(nil))
}
