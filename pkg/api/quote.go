package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/preview"
	"github.com/matzehuels/mockup/pkg/pricing"
	"github.com/matzehuels/mockup/pkg/scene"
)

// QuoteRequest prices a layer set without an editing session.
type QuoteRequest struct {
	ProductSlug string         `json:"productSlug"`
	Color       string         `json:"color,omitempty"`
	Front       []layer.Record `json:"front"`
	Back        []layer.Record `json:"back"`

	// Preview also renders both sides.
	Preview bool `json:"preview,omitempty"`
}

// QuoteResponse is the pricing of a QuoteRequest.
type QuoteResponse struct {
	pricing.Quote
	Previews map[layer.Side]string `json:"previews,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req QuoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode quote request"))
		return
	}
	resp, err := s.Quote(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Quote projects each side of req onto an off-screen surface and prices
// it with the product's pricing. Elements whose image cannot be loaded are
// left out and reported as warnings.
func (s *Server) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if s.cfg.Loader == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "quotes need an image loader")
	}
	p, err := s.cfg.Products.ProductBySlug(ctx, req.ProductSlug)
	if err != nil {
		return nil, err
	}
	engine := s.pricing.ForProduct(p)

	resp := &QuoteResponse{}
	records := map[layer.Side][]layer.Record{layer.Front: req.Front, layer.Back: req.Back}
	metrics := make(map[layer.Side]pricing.Metrics, len(records))
	for _, side := range layer.Sides {
		for _, rec := range records[side] {
			if err := rec.Validate(); err != nil {
				return nil, errors.Wrap(errors.ErrCodeValidation, err, "%s layer", side)
			}
		}
		surface, errs := scene.Build(ctx, s.cfg.Loader, scene.BuildOptions{Side: side, Records: records[side]})
		metrics[side] = engine.Compute(surface, side)
		surface.Release()
		for _, e := range errs {
			resp.Warnings = append(resp.Warnings, errors.UserMessage(e))
		}
	}
	resp.Quote = pricing.NewQuote(p.Price, metrics[layer.Front], metrics[layer.Back])

	if req.Preview {
		color := req.Color
		if color == "" && len(p.Variants) > 0 {
			color = p.Variants[0].Color
		}
		resp.Previews = make(map[layer.Side]string, 2)
		for _, side := range layer.Sides {
			uri, _, err := s.cfg.Renderer.Offscreen(ctx, preview.Request{
				Side:    side,
				Records: records[side],
				BaseURI: scene.SelectBaseImage(p.ImageURLs(color), side),
			})
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "preview %s", side)
			}
			resp.Previews[side] = uri
		}
	}
	s.logger.Debug("quoted", "product", p.Slug, "total", resp.Total.StringFixed(2), "warnings", len(resp.Warnings))
	return resp, nil
}
