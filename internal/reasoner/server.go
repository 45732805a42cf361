package reasoner

import (
	"time"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// NewServer mounts h at InterpretPath on a kratos HTTP server listening on
// addr. A zero timeout keeps the kratos default.
func NewServer(addr string, timeout time.Duration, h *Handler) *khttp.Server {
	opts := []khttp.ServerOption{
		khttp.Middleware(recovery.Recovery()),
	}
	if addr != "" {
		opts = append(opts, khttp.Address(addr))
	}
	if timeout > 0 {
		opts = append(opts, khttp.Timeout(timeout))
	}
	srv := khttp.NewServer(opts...)
	srv.Handle(InterpretPath, h)
	return srv
}
