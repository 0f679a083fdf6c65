package extractor

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTMLSnapshot(t *testing.T) {
	page := `<html><head><meta property="og:title" content="Lamp"></head><body>
	  <div class="card" data-id="1">
	    <div class="card"><span class="name">Inner</span></div>
	    <span class="name">  Outer   card </span>
	  </div>
	  <style>.name { color: red }</style>
	</body></html>`

	snap, err := NewHTMLSnapshot("https://shop.example.com/", strings.NewReader(page), []Query{
		{Selector: `meta[property="og:title"]`},
		{Selector: ".card", Within: []string{".card", ".name"}},
		{Selector: ".missing"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/", snap.URL())

	meta := snap.Query(`meta[property="og:title"]`)
	require.Len(t, meta, 1)
	assert.Equal(t, "Lamp", meta[0].Value())

	cards := snap.Query(".card")
	require.Len(t, cards, 2)
	assert.Equal(t, "1", cards[0].Attr("data-id"))
	assert.Equal(t, "Inner Outer card", cards[0].Text)
	assert.Len(t, cards[0].Query(".card"), 1, "a node never matches its own relative query")
	assert.Len(t, cards[0].Query(".name"), 2)
	assert.Empty(t, cards[1].Query(".card"))
	assert.Equal(t, "Inner", cards[1].Query(".name")[0].Text)

	assert.Empty(t, snap.Query(".missing"))
	assert.Nil(t, snap.Query("not-captured"))
}

func TestNewHTMLSnapshot_IgnoresScriptText(t *testing.T) {
	data, err := os.ReadFile("testdata/snapshots/listing.html")
	require.NoError(t, err)

	snap, err := NewHTMLSnapshot("https://www.aliexpress.com/w/wholesale-desk-lamp.html",
		strings.NewReader(string(data)), []Query{{Selector: "body"}})
	require.NoError(t, err)

	body := snap.Query("body")
	require.Len(t, body, 1)
	assert.Contains(t, body[0].Text, "Folding LED Desk Lamp")
	assert.Contains(t, body[0].Text, "US $ 12 .49")
	assert.NotContains(t, body[0].Text, "999.99")
}

func TestNewHTMLSnapshot_InvalidSelector(t *testing.T) {
	_, err := NewHTMLSnapshot("https://shop.example.com/", strings.NewReader("<p>x</p>"), []Query{
		{Selector: "p", Within: []string{"[unclosed"}},
	})
	assert.ErrorIs(t, err, ErrInvalidSelector)
}

func TestNewHTMLSnapshot_DefaultStrategyCompiles(t *testing.T) {
	_, err := NewHTMLSnapshot("https://shop.example.com/", strings.NewReader("<html></html>"), DefaultStrategy().Queries())
	assert.NoError(t, err)
}
