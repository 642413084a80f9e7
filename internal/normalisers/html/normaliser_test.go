package html

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e := New()
	require.NotNil(t, e)
	assert.Equal(t, []string{".html", ".htm"}, e.SupportedExtensions())
}

func TestParse_TextAndLinks(t *testing.T) {
	src := `<html><head><title> Docs </title><style>body{color:red}</style></head>
<body>
  <h1>Welcome</h1>
  <p>Hello   <b>World</b></p>
  <script>var x = 1;</script>
  <ul><li><a href="https://llm.datasette.io/en/stable/setup.html">Setup</a></li>
      <li><a href="/relative">Rel</a></li>
      <li><a>No href</a></li></ul>
  <!-- hidden comment -->
</body></html>`

	page, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "Docs", page.Title)
	assert.Equal(t, "Welcome\nHello World\nSetup\nRel\nNo href", page.Text)
	assert.Equal(t, []string{"https://llm.datasette.io/en/stable/setup.html", "/relative"}, page.Links)
}

func TestParse_HiddenElements(t *testing.T) {
	src := `<body><noscript>enable js</noscript><svg><text>icon</text></svg><div>shown</div></body>`

	page, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "shown", page.Text)
}

func TestParse_Empty(t *testing.T) {
	page, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, page.Text)
	assert.Empty(t, page.Links)
}

func TestExtract(t *testing.T) {
	text, err := New().Extract(context.Background(), "index.html", []byte("<p>a</p><p>b</p>"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb", text)
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "a b\nc", collapse("  a \t b \n\n\n  c  "))
}
