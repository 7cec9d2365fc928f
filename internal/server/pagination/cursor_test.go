package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTripPreservesOrder(t *testing.T) {
	prev := int64(0)
	for _, id := range []int64{1, 2, 9, 10, 99, 100, 101, 1 << 40} {
		c := EncodeCursor(id)
		got, err := DecodeCursor(c)
		require.NoError(t, err)
		assert.Equal(t, id, got)
		assert.Greater(t, got, prev)
		prev = got
	}
}

func TestEncodeCursor_Format(t *testing.T) {
	raw, err := base64.RawURLEncoding.DecodeString(EncodeCursor(105))
	require.NoError(t, err)
	assert.Equal(t, "msg:105", string(raw))
}

func TestDecodeCursor_Rejects(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	for name, c := range map[string]string{
		"empty":         "",
		"not base64":    "***",
		"padded":        base64.URLEncoding.EncodeToString([]byte("msg:1")),
		"wrong prefix":  enc("grp:5"),
		"no digits":     enc("msg:"),
		"negative":      enc("msg:-3"),
		"zero":          enc("msg:0"),
		"leading zeros": enc("msg:007"),
		"trailing junk": enc("msg:5x"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(c)
			assert.ErrorIs(t, err, common.ErrInvalidArgument)
		})
	}
}
