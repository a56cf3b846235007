package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/strategy"
	"CryptoSentinel/internal/valuation"
)

const dateLayout = "2006-01-02"

// Valuer evaluates assets on demand. *collector.Collector implements it.
type Valuer interface {
	Profiles() []model.AssetProfile
	Lookup(key string) (model.AssetProfile, bool)
	Collect(ctx context.Context, profile model.AssetProfile) *model.Snapshot
}

// Handler serves the valuation endpoints.
type Handler struct {
	valuer Valuer
}

// NewHandler creates a Handler.
func NewHandler(v Valuer) *Handler {
	return &Handler{valuer: v}
}

// RegisterRoutes mounts the endpoints on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
	g := e.Group("/api")
	g.GET("/assets", h.assets)
	g.GET("/bands", h.bands)
	g.GET("/valuation/:asset", h.valuation)
}

func (h *Handler) health(c echo.Context) error {
	return SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *Handler) assets(c echo.Context) error {
	return SuccessResponse(c, h.valuer.Profiles())
}

type bandsResponse struct {
	Asset  string                `json:"asset,omitempty"`
	Policy string                `json:"policy"`
	Bands  []strategy.BandRange  `json:"bands"`
	Lines  []model.ReferenceLine `json:"lines"`
}

// bands lists the fixed table, or with ?asset= the ranges of that asset's
// configured policy. Percentile ranges come from its current history.
func (h *Handler) bands(c echo.Context) error {
	key := c.QueryParam("asset")
	if key == "" {
		p := strategy.FixedThresholds{}
		return SuccessResponse(c, bandsResponse{Policy: p.Name(), Bands: p.Ranges(), Lines: p.Lines()})
	}

	profile, ok := h.valuer.Lookup(key)
	if !ok {
		return NotFoundResponse(c, "unknown asset "+key)
	}
	snap := h.valuer.Collect(c.Request().Context(), profile)
	if !snap.OK() {
		return DataResponse(c, errorStatus(snap.Err), snap.Err.Error())
	}
	p, err := strategy.ForProfile(profile.Policy, snap.Valuation)
	if err != nil {
		return DataResponse(c, http.StatusInternalServerError, err.Error())
	}
	return SuccessResponse(c, bandsResponse{Asset: profile.ID, Policy: p.Name(), Bands: p.Ranges(), Lines: p.Lines()})
}

type valuationRequest struct {
	Asset  string `param:"asset" validate:"required"`
	From   string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Series string `query:"series" default:"full" validate:"oneof=full none"`
}

type valuationResponse struct {
	Asset            model.AssetProfile     `json:"asset"`
	Source           string                 `json:"source"`
	Model            model.ModelKind        `json:"model"`
	Note             string                 `json:"note"`
	Coefficients     *model.PowerLaw        `json:"coefficients,omitempty"`
	CurrentPrice     float64                `json:"current_price"`
	CurrentDeviation *float64               `json:"current_deviation"`
	AsOf             time.Time              `json:"as_of"`
	Classification   model.Classification   `json:"classification"`
	Warnings         []string               `json:"warnings,omitempty"`
	Series           []model.AnnotatedPoint `json:"series,omitempty"`
}

func (h *Handler) valuation(c echo.Context) error {
	var req valuationRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	var from, to time.Time
	if req.From != "" {
		from, _ = time.Parse(dateLayout, req.From)
	}
	if req.To != "" {
		to, _ = time.Parse(dateLayout, req.To)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return BadRequestResponse(c, []ValidationError{{Code: "ERR_RANGE", Field: "From", Message: "from must not be after to"}})
	}

	profile, ok := h.valuer.Lookup(req.Asset)
	if !ok {
		return NotFoundResponse(c, "unknown asset "+req.Asset)
	}

	snap := h.valuer.Collect(c.Request().Context(), profile)
	if !snap.OK() {
		return DataResponse(c, errorStatus(snap.Err), snap.Err.Error())
	}

	v := snap.Valuation
	resp := valuationResponse{
		Asset:            profile,
		Source:           snap.Source,
		Model:            v.Model,
		Note:             v.Note,
		CurrentPrice:     v.CurrentPrice,
		CurrentDeviation: v.CurrentDeviation,
		AsOf:             v.AsOf,
		Classification:   snap.Classification,
	}
	if v.HasCoefficients {
		coef := v.Coefficients
		resp.Coefficients = &coef
	}
	for _, w := range v.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	if req.Series == "full" {
		resp.Series = v.Series.Window(from, to)
	}
	return SuccessResponse(c, resp)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, collector.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, valuation.ErrMalformedInput), errors.Is(err, valuation.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
