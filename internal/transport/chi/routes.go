package chi

import (
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// InvalidParamError reports a path or query parameter that failed to bind.
type InvalidParamError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamError) Unwrap() error { return e.Err }

// RouterOptions configures Handler.
type RouterOptions struct {
	BaseRouter gochi.Router
	// ErrorHandlerFunc renders parameter binding errors. Defaults to a 400 JSON body.
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts every route of s on opts.BaseRouter.
func HandlerWithOptions(s *Server, opts RouterOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = gochi.NewRouter()
	}
	errFn := opts.ErrorHandlerFunc
	if errFn == nil {
		errFn = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		}
	}
	b := &binder{s: s, errFn: errFn}

	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/instances", s.ListInstances)
	r.Post("/instances", s.AddInstance)
	r.Delete("/instances/{name}", b.deleteInstance)

	r.Get("/configs", s.ListConfigs)
	r.Post("/configs", s.AddConfig)
	r.Get("/configs/{name}", b.getConfig)
	r.Delete("/configs/{name}", b.deleteConfig)

	r.Get("/collections/{instance}", b.listCollections)
	r.Delete("/collections/{instance}/{collection}", b.deleteCollection)

	r.Get("/points/{instance}/{collection}", b.listPoints)
	r.Delete("/points/{instance}/{collection}", b.clearPoints)
	r.Delete("/points/{instance}/{collection}/{id}", b.deletePoint)

	r.Post("/search/{instance}", b.search)
	r.Post("/text-search/{instance}", b.textSearch)
	r.Get("/export/{instance}/{collection}", b.export)

	return r
}

// binder decodes path and query parameters before calling the Server.
type binder struct {
	s     *Server
	errFn func(w http.ResponseWriter, r *http.Request, err error)
}

func (b *binder) deleteInstance(w http.ResponseWriter, r *http.Request) {
	if name, ok := b.path(w, r, "name"); ok {
		b.s.DeleteInstance(w, r, name)
	}
}

func (b *binder) getConfig(w http.ResponseWriter, r *http.Request) {
	if name, ok := b.path(w, r, "name"); ok {
		b.s.GetConfig(w, r, name)
	}
}

func (b *binder) deleteConfig(w http.ResponseWriter, r *http.Request) {
	if name, ok := b.path(w, r, "name"); ok {
		b.s.DeleteConfig(w, r, name)
	}
}

func (b *binder) listCollections(w http.ResponseWriter, r *http.Request) {
	if inst, ok := b.path(w, r, "instance"); ok {
		b.s.ListCollections(w, r, inst)
	}
}

func (b *binder) deleteCollection(w http.ResponseWriter, r *http.Request) {
	inst, collection, ok := b.instanceCollection(w, r)
	if ok {
		b.s.DeleteCollection(w, r, inst, collection)
	}
}

func (b *binder) listPoints(w http.ResponseWriter, r *http.Request) {
	inst, collection, ok := b.instanceCollection(w, r)
	if !ok {
		return
	}
	var params PointsParams
	if !b.query(w, r, "limit", &params.Limit) ||
		!b.query(w, r, "offset", &params.Offset) ||
		!b.query(w, r, "with_payload", &params.WithPayload) ||
		!b.query(w, r, "with_vector", &params.WithVector) {
		return
	}
	b.s.ListPoints(w, r, inst, collection, params)
}

func (b *binder) clearPoints(w http.ResponseWriter, r *http.Request) {
	inst, collection, ok := b.instanceCollection(w, r)
	if ok {
		b.s.ClearPoints(w, r, inst, collection)
	}
}

func (b *binder) deletePoint(w http.ResponseWriter, r *http.Request) {
	inst, collection, ok := b.instanceCollection(w, r)
	if !ok {
		return
	}
	if id, ok := b.path(w, r, "id"); ok {
		b.s.DeletePoint(w, r, inst, collection, id)
	}
}

func (b *binder) search(w http.ResponseWriter, r *http.Request) {
	if inst, ok := b.path(w, r, "instance"); ok {
		b.s.Search(w, r, inst)
	}
}

func (b *binder) textSearch(w http.ResponseWriter, r *http.Request) {
	if inst, ok := b.path(w, r, "instance"); ok {
		b.s.TextSearch(w, r, inst)
	}
}

func (b *binder) export(w http.ResponseWriter, r *http.Request) {
	inst, collection, ok := b.instanceCollection(w, r)
	if !ok {
		return
	}
	var params ExportParams
	if !b.query(w, r, "with_vectors", &params.WithVectors) {
		return
	}
	b.s.Export(w, r, inst, collection, params)
}

func (b *binder) instanceCollection(w http.ResponseWriter, r *http.Request) (inst, collection string, ok bool) {
	if inst, ok = b.path(w, r, "instance"); !ok {
		return "", "", false
	}
	collection, ok = b.path(w, r, "collection")
	return inst, collection, ok
}

// path binds a required simple-style path parameter.
func (b *binder) path(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, gochi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		b.errFn(w, r, &InvalidParamError{ParamName: name, Err: err})
		return "", false
	}
	return v, true
}

// query binds an optional form-style query parameter into dest, a pointer to a pointer.
func (b *binder) query(w http.ResponseWriter, r *http.Request, name string, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		b.errFn(w, r, &InvalidParamError{ParamName: name, Err: err})
		return false
	}
	return true
}
