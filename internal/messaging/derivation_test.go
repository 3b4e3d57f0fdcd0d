package messaging

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerivationMessage_ThumbnailRoundTrip(t *testing.T) {
	msg := NewThumbnail(42, 3, 100, 200, 256, 15)

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	require.JSONEq(t, `{"ThumbnailImage":{"video_id":42,"num_parts":3,"crop_center_x":100,"crop_center_y":200,"crop_size":256,"frame_number":15}}`, string(body))

	var decoded DerivationMessage
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Equal(t, msg, decoded)
}

func TestDerivationMessage_HighlightRoundTrip(t *testing.T) {
	msg := NewHighlight(7, 2, 10, 20, 64, 30, 90)

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded DerivationMessage
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Equal(t, msg, decoded)
}

func TestDerivationMessage_FullVideoRoundTrip(t *testing.T) {
	msg := NewFullVideo(9, 4)

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	require.JSONEq(t, `{"FullVideo":{"video_id":9,"num_parts":4}}`, string(body))

	var decoded DerivationMessage
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Equal(t, msg, decoded)
}

func TestDerivationMessage_UnmarshalRejectsMultipleTags(t *testing.T) {
	var decoded DerivationMessage
	err := json.Unmarshal([]byte(`{"ThumbnailImage":{},"FullVideo":{}}`), &decoded)
	require.Error(t, err)
}

func TestDerivationMessage_UnmarshalRejectsUnknownTag(t *testing.T) {
	var decoded DerivationMessage
	err := json.Unmarshal([]byte(`{"Bogus":{}}`), &decoded)
	require.Error(t, err)
}

func TestKind_RenditionDirAndColumn(t *testing.T) {
	require.Equal(t, "png", KindThumbnail.RenditionDir())
	require.Equal(t, "thumbnail", KindThumbnail.Column())

	require.Equal(t, "webp", KindHighlight.RenditionDir())
	require.Equal(t, "highlight", KindHighlight.Column())

	require.Equal(t, "mp4", KindFullVideo.RenditionDir())
	require.Equal(t, "full_video", KindFullVideo.Column())
}
