package broker

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"crawlbroker.dev/internal/lol"
	"crawlbroker.dev/internal/servemux"
)

// Admin is the broker's read-only diagnostic HTTP surface: /healthz for load
// balancers that don't speak gRPC health checks, and /stats for operators.
// Neither handler can mutate registry state; the broker's only control
// surface is the two RPCs.
type Admin struct {
	b   *Broker
	mux *servemux.S
}

// StatsOutput is the body of GET /stats.
type StatsOutput struct {
	Body struct {
		Subscribers int            `json:"subscribers"`
		Dispatched  int64          `json:"dispatched"`
		QueueDepths map[string]int `json:"queue_depths"`
	}
}

// NewAdmin builds the admin HTTP handler for b.
func NewAdmin(b *Broker) *Admin {
	lol.Tracer("NewAdmin")
	sm := servemux.New()
	a := &Admin{b: b, mux: sm}

	sm.HandleFunc(
		"/healthz", func(w http.ResponseWriter, r *http.Request) {
			if !b.Ready() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		},
	)

	api := humago.New(sm.ServeMux, huma.DefaultConfig("crawlbroker admin", "1.0.0"))
	huma.Register(
		api, huma.Operation{
			OperationID: "stats",
			Method:      http.MethodGet,
			Path:        "/stats",
			Summary:     "Subscriber and queue diagnostics",
			Tags:        []string{"admin"},
		}, a.stats,
	)
	return a
}

func (a *Admin) stats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	out := &StatsOutput{}
	out.Body.Subscribers = a.b.SubscriberCount()
	out.Body.Dispatched = a.b.Dispatched()
	out.Body.QueueDepths = a.b.QueueDepths()
	return out, nil
}

// Handler returns the http.Handler to bind the admin listener to.
func (a *Admin) Handler() http.Handler { return a.mux }
