// Package pagination windows a group's message history into cursor pages.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/groupchat/internal/common"
)

const cursorPrefix = "msg:"

// EncodeCursor returns the opaque cursor for a message id.
func EncodeCursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(id, 10)))
}

// DecodeCursor is the exact inverse of EncodeCursor. Any other string is
// rejected with common.ErrInvalidArgument.
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed cursor", common.ErrInvalidArgument)
	}

	digits, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: malformed cursor", common.ErrInvalidArgument)
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 || EncodeCursor(id) != cursor {
		return 0, fmt.Errorf("%w: malformed cursor", common.ErrInvalidArgument)
	}
	return id, nil
}
