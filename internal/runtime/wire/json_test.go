package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/internal/runtime/tags"
)

func TestParseJSONView(t *testing.T) {
	view, err := ParseJSON([]byte(`{"tag":["ping","extra"],"name":"alice","count":3,"off":false,"nil":null,"address":{"city":"Leganes"}}`))
	require.NoError(t, err)

	got, err := view.Tags()
	require.NoError(t, err)
	assert.Equal(t, tags.New("extra", "ping"), got)

	name, ok := view.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "alice", name)

	count, ok := view.Get("count")
	assert.True(t, ok)
	assert.Equal(t, "3", count)

	city, ok := view.Get("address.city")
	assert.True(t, ok)
	assert.Equal(t, "Leganes", city)

	for _, field := range []string{"off", "nil", "missing"} {
		_, ok := view.Get(field)
		assert.False(t, ok, field)
	}
}

func TestJSONTagVariants(t *testing.T) {
	single, err := ParseJSON([]byte(`{"tags":"ping"}`))
	require.NoError(t, err)
	got, err := single.Tags()
	require.NoError(t, err)
	assert.Equal(t, tags.New("ping"), got)

	untagged, err := ParseJSON([]byte(`{"dst":"echo"}`))
	require.NoError(t, err)
	got, err = untagged.Tags()
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestJSONMalformedTags(t *testing.T) {
	for _, payload := range []string{`{"tag":42}`, `{"tag":["ok",1]}`, `{"tag":{"a":"b"}}`} {
		view, err := ParseJSON([]byte(payload))
		require.NoError(t, err)
		_, err = view.Tags()
		assert.ErrorIs(t, err, errspkg.ErrMalformedTags, payload)
	}
}

func TestParseJSONRejectsNonObjects(t *testing.T) {
	_, err := ParseJSON([]byte(`[1,2]`))
	assert.Error(t, err)
	_, err = ParseJSON([]byte(`{"broken"`))
	assert.Error(t, err)
}

func TestJSONMessageEncoding(t *testing.T) {
	out := NewMessage().Set("dst", "relay").Tag("send").Add("to", "a").Add("to", "b").JSON()
	assert.Equal(t, `{"dst":"relay","tag":["send"],"to":["a","b"]}`, out.String())
	assert.Equal(t, ContentTypeJSON, out.ContentType())

	view, err := ParseJSON([]byte(out.String()))
	require.NoError(t, err)
	got, err := view.Tags()
	require.NoError(t, err)
	assert.Equal(t, tags.New("send"), got)
}
