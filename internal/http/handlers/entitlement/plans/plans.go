// Package plans отдаёт публичный каталог тарифов с функциями, которые они открывают.
package plans

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/plans"
)

// PlanView — тариф вместе со списком функций.
type PlanView struct {
	plans.Plan
	Features []string `json:"features"`
}

type Catalog interface {
	All() []plans.Plan
}

type FeatureLister interface {
	FeaturesForPlan(planName string) ([]string, bool)
}

type Handler struct {
	log      *slog.Logger
	catalog  Catalog
	features FeatureLister
}

func New(log *slog.Logger, catalog Catalog, features FeatureLister) *Handler {
	return &Handler{log: log, catalog: catalog, features: features}
}

// ServeHTTP godoc
// @Summary Каталог тарифов
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Response{data=[]PlanView}
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	all := h.catalog.All()
	out := make([]PlanView, 0, len(all))
	for _, p := range all {
		fs, ok := h.features.FeaturesForPlan(p.ID)
		if !ok || fs == nil {
			fs = []string{}
		}
		out = append(out, PlanView{Plan: p, Features: fs})
	}
	render.JSON(w, r, response.OKWithData(out))
}
