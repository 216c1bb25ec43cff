package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/payload"
)

type idResponse struct {
	ID string `json:"id"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pricing.Catalog().Presets())
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.cfg.Products.Products(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.product(r, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) product(r *http.Request, slug string) (*catalog.Product, error) {
	p, err := s.cfg.Products.ProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.GetCode(err) == "" {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "product %s", slug)
		}
		return nil, err
	}
	return p, nil
}

func (s *Server) saveDesign(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := payload.DecodeDesign(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if d.ProductID == "" || d.SelectedColor == "" {
		writeError(w, errors.New(errors.ErrCodeValidation, "design needs a product and a color"))
		return
	}
	id, err := s.cfg.Designs.SaveDesign(r.Context(), d)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("saved design", "id", id, "product", d.ProductSlug, "bytes", len(body))
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) getDesign(w http.ResponseWriter, r *http.Request) {
	d, err := s.cfg.Designs.GetDesign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	var item payload.CartItem
	if err := json.Unmarshal(body, &item); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode cart item"))
		return
	}
	if item.Quantity < 1 || item.SelectedSize == "" {
		writeError(w, errors.New(errors.ErrCodeValidation, "cart item needs a size and a positive quantity"))
		return
	}
	if err := s.cfg.Cart.AddItem(r.Context(), &item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: item.ID})
}

func (s *Server) listCartItems(w http.ResponseWriter, r *http.Request) {
	cart := r.URL.Query().Get("cart")
	if cart == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing cart parameter"))
		return
	}
	items, err := s.cfg.Cart.Items(r.Context(), cart)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// readBody reads the request body, refusing bodies above MaxBody.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxBody)))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, payload.CheckSize(int(tooLarge.Limit)+1, s.cfg.MaxBody)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	return body, nil
}
