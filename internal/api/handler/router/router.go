package router

import (
	"net/http"
	"sort"

	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/ads-insight-sync/pkg/apiErrors"
)

var (
	WithRoutes = func(routes ...Route) ConfigRouter {
		return func(router *Router) {
			router.AddRoutes(routes...)
		}
	}
)

type Route struct {
	Path        string
	Method      string
	Handler     http.Handler
	Middlewares []func(http.Handler) http.Handler // aplicados só nesta rota, na ordem declarada
}

type Router struct {
	router     *httprouter.Router
	registered *[]string
}

type ConfigRouter func(router *Router)

// New monta o roteador. Rotas desconhecidas e métodos não suportados
// respondem no mesmo envelope JSON dos demais erros da API.
func New(configs ...ConfigRouter) Router {
	mux := httprouter.New()
	mux.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiErrors.WriteError(w, apiErrors.ErrRouteNotFound, "Rota não encontrada", r.URL.Path)
	})
	mux.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiErrors.WriteError(w, apiErrors.ErrMethodNotAllowed, "Método não permitido", r.Method)
	})
	// preflight fica com o middleware de CORS
	mux.HandleOPTIONS = false

	router := &Router{
		router:     mux,
		registered: &[]string{},
	}

	for _, config := range configs {
		config(router)
	}

	return *router
}

func (r Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func (r Router) AddRoutes(routes ...Route) {
	for _, route := range routes {
		handler := route.Handler

		for i := len(route.Middlewares) - 1; i >= 0; i-- {
			handler = route.Middlewares[i](handler)
		}

		r.router.Handler(route.Method, route.Path, handler)
		*r.registered = append(*r.registered, route.Method+" "+route.Path)
	}
}

// Routes lista "MÉTODO caminho" de tudo que foi registrado, em ordem alfabética.
func (r Router) Routes() []string {
	out := append([]string(nil), (*r.registered)...)
	sort.Strings(out)
	return out
}
