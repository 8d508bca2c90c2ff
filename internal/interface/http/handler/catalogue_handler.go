package handler

import (
	"net/http"

	"github.com/gigmile/lending-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogueHandler serves customers, products and fees.
type CatalogueHandler struct {
	catalogue CatalogueService
	logger    *zap.Logger
}

func NewCatalogueHandler(catalogue CatalogueService, logger *zap.Logger) *CatalogueHandler {
	return &CatalogueHandler{
		catalogue: catalogue,
		logger:    logger,
	}
}

func (h *CatalogueHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCustomerRequest
	if err := decode(r, &req); err != nil {
		respondError(w, h.logger, "invalid customer", err)
		return
	}

	customer, err := h.catalogue.CreateCustomer(r.Context(), req.Params())
	if err != nil {
		respondError(w, h.logger, "failed to create customer", err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(customer))
}

func (h *CatalogueHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.catalogue.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, "failed to get customer", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(customer))
}

func (h *CatalogueHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if err := decode(r, &req); err != nil {
		respondError(w, h.logger, "invalid product", err)
		return
	}

	product, err := h.catalogue.CreateProduct(r.Context(), req.Params())
	if err != nil {
		respondError(w, h.logger, "failed to create product", err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewProductResponse(product))
}

// GetProduct returns the product with its attached fees.
func (h *CatalogueHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogue.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, "failed to get product", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewProductResponse(product))
}

func (h *CatalogueHandler) CreateFee(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFeeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, h.logger, "invalid fee", err)
		return
	}

	fee, err := h.catalogue.CreateFee(r.Context(), req.Params())
	if err != nil {
		respondError(w, h.logger, "failed to create fee", err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewFeeResponse(fee))
}

func (h *CatalogueHandler) AttachFee(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	feeID := chi.URLParam(r, "feeId")

	product, err := h.catalogue.AttachFee(r.Context(), productID, feeID)
	if err != nil {
		respondError(w, h.logger, "failed to attach fee", err)
		return
	}

	h.logger.Info("fee attached to product",
		zap.String("product_id", productID),
		zap.String("fee_id", feeID),
	)
	respondJSON(w, http.StatusOK, dto.NewProductResponse(product))
}
