package anchor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuralPathString(t *testing.T) {
	tests := []struct {
		name string
		path StructuralPath
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "single segment", path: StructuralPath{{Tag: "div", Index: 1}}, want: "/div"},
		{
			name: "indexed segment",
			path: StructuralPath{{Tag: "div", Index: 1}, {Tag: "p", Index: 3}},
			want: "/div/p[3]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path.String())
		})
	}
}

func TestParsePath(t *testing.T) {
	path, err := ParsePath("/div/blockquote/p[2]")
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, PathSegment{Tag: "div", Index: 1}, path[0])
	assert.Equal(t, PathSegment{Tag: "p", Index: 2}, path[2])

	empty, err := ParsePath("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	for _, bad := range []string{"div/p", "/div//p", "/p[0]", "/p[x]", "/p[2", "/[2]"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestStructuralPathJSONRoundTrip(t *testing.T) {
	original := StructuralPath{{Tag: "div", Index: 1}, {Tag: "p", Index: 2}}

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"/div/p[2]"`, string(raw))

	var decoded StructuralPath
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original, decoded)
}

func TestAnchorValidate(t *testing.T) {
	valid := Anchor{Text: "restless", StartOffset: 44, EndOffset: 52}
	require.NoError(t, valid.Validate(-1))
	require.NoError(t, valid.Validate(100))

	tests := []struct {
		name   string
		anchor Anchor
		total  int
	}{
		{name: "empty text", anchor: Anchor{StartOffset: 0, EndOffset: 4}, total: -1},
		{name: "negative start", anchor: Anchor{Text: "x", StartOffset: -1, EndOffset: 4}, total: -1},
		{name: "collapsed", anchor: Anchor{Text: "x", StartOffset: 4, EndOffset: 4}, total: -1},
		{name: "inverted", anchor: Anchor{Text: "x", StartOffset: 5, EndOffset: 4}, total: -1},
		{name: "past end of container", anchor: Anchor{Text: "x", StartOffset: 44, EndOffset: 52}, total: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.anchor.Validate(tt.total))
		})
	}
}

func TestAnchorDegradedAndLength(t *testing.T) {
	a := Anchor{Text: "restless", StartOffset: 44, EndOffset: 52}
	assert.True(t, a.Degraded())
	assert.Equal(t, 8, a.Length())

	a.ContainerID = "confessions-book-i-chapter-1"
	assert.False(t, a.Degraded())
}
