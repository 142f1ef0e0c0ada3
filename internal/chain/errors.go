package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

const jsonRPCMethodNotFound = -32601

// IsMethodNotFound reports whether the node rejected the call because it does not implement the method.
// Some nodes answer with a plain error message instead of the JSON-RPC code.
func IsMethodNotFound(err error) bool {
	if err == nil {
		return false
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == jsonRPCMethodNotFound {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "method not found") || strings.Contains(msg, "does not exist/is not available")
}
