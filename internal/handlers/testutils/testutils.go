// Package testutils — вспомогательные функции для тестов хендлеров.
package testutils

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// WithChiURLParams кладет параметры пути в chi-контекст запроса,
// чтобы вызывать хендлеры напрямую, без маршрутизатора.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// WithRFQID — частый случай единственного параметра {rfqId}
func WithRFQID(req *http.Request, id string) *http.Request {
	return WithChiURLParams(req, map[string]string{"rfqId": id})
}
