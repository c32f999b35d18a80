package router

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = xcontext.WithDB(ctx, router.db)
		ctx = xcontext.WithConfigs(ctx, router.cfg)
		ctx = xcontext.WithLogger(ctx, router.logger)
		ctx = xcontext.WithRequestUserID(ctx, r.Header.Get("X-User-Id"))

		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req Request
		var err error
		switch method {
		case http.MethodGet:
			err = bindQuery(r, &req)
		case http.MethodPost:
			err = json.NewDecoder(r.Body).Decode(&req)
		}
		if err != nil {
			writeResponse(ctx, w,
				newErrorResponse(errorx.New(errorx.BadRequest, "Cannot parse request")))
			return
		}

		resp, err := handler(ctx, &req)
		if err != nil {
			writeResponse(ctx, w, newErrorResponse(err))
			return
		}

		writeResponse(ctx, w, newResponse(resp))
	}
}

// bindQuery fills the request struct from url query parameters through its
// json tags. Values that parse as numbers, booleans or json objects are
// bound as such, everything else as strings.
func bindQuery(r *http.Request, req any) error {
	values := map[string]any{}
	for key, list := range r.URL.Query() {
		if len(list) == 0 {
			continue
		}

		raw := list[0]
		switch {
		case raw == "true" || raw == "false":
			values[key] = raw == "true"
		default:
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				values[key] = n
				break
			}

			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				values[key] = f
				break
			}

			values[key] = raw
		}
	}

	b, err := json.Marshal(values)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, req)
}
