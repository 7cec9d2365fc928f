package client

import (
	"fmt"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var codeErrors = map[codes.Code]error{
	codes.Unauthenticated: common.ErrorUnauthorized,
	codes.NotFound:        common.ErrorNotFound,
	codes.InvalidArgument: common.ErrInvalidArgument,
	codes.AlreadyExists:   common.ErrorAlreadyExists,
	codes.Internal:        common.ErrorInternal,
}

// mapError turns a status error into the matching common sentinel so
// callers can use errors.Is. Unknown codes are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	base, ok := codeErrors[st.Code()]
	if !ok {
		return err
	}
	return fmt.Errorf("%w: %s", base, st.Message())
}
