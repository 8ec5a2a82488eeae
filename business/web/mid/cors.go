// Package mid contains the set of middleware functions.
package mid

import (
	"context"
	"net/http"
	"strings"

	"github.com/ardanlabs/blockminer/foundation/web"
)

// corsHeaders are the request headers a browser client may send.
const corsHeaders = "Origin, Accept, Content-Type, Content-Length, Accept-Encoding"

// Cors sets the response headers needed for Cross-Origin Resource Sharing.
// The miner API is read only, so only the specified methods are advertised
// and a preflight request is answered without reaching the handler.
func Cors(origin string, methods ...string) web.Middleware {
	allow := strings.Join(append(methods, http.MethodOptions), ", ")

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", allow)
			w.Header().Set("Access-Control-Allow-Headers", corsHeaders)

			if r.Method == http.MethodOptions {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
