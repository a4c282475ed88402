package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sms/internal/domain"
	"github.com/vladislavdragonenkov/sms/internal/service/status"
)

const defaultListLimit = 50

// Handler обслуживает HTTP API управления отправлениями.
type Handler struct {
	engine       *status.Engine
	shipments    domain.ShipmentRepository
	tracking     domain.TrackingRepository
	serviceTypes domain.ServiceTypeRepository
	logger       *log.Entry
}

// NewHandler создаёт HTTP-обработчик поверх движка статусов и репозиториев.
func NewHandler(
	engine *status.Engine,
	shipments domain.ShipmentRepository,
	tracking domain.TrackingRepository,
	serviceTypes domain.ServiceTypeRepository,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.WithField("component", "rest-handler")
	}
	return &Handler{
		engine:       engine,
		shipments:    shipments,
		tracking:     tracking,
		serviceTypes: serviceTypes,
		logger:       logger,
	}
}

// Router собирает маршруты API.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Публичный трекинг: без тенанта, по одному трек-номеру.
		r.Get("/track/{trackingNumber}", h.trackShipment)

		r.Group(func(r chi.Router) {
			r.Use(requireTenant)

			r.Post("/shipments", h.createShipment)
			r.Get("/shipments", h.listShipments)
			r.Get("/shipments/{id}", h.getShipment)
			r.Post("/shipments/{id}/status", h.changeStatus)
			r.Post("/shipments/{id}/cancel", h.cancelShipment)
			r.Post("/shipments/{id}/carrier", h.assignCarrier)
			r.Delete("/shipments/{id}", h.deleteShipment)

			r.Get("/rates", h.quoteRates)
			r.Post("/rates", h.quoteRates)
		})
	})

	return r
}

type addressPayload struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

type createShipmentRequest struct {
	ReferenceNumber string         `json:"reference_number"`
	ServiceCode     string         `json:"service_code"`
	WeightKg        float64        `json:"weight_kg"`
	LengthCm        float64        `json:"length_cm"`
	WidthCm         float64        `json:"width_cm"`
	HeightCm        float64        `json:"height_cm"`
	Contents        string         `json:"contents"`
	Sender          addressPayload `json:"sender"`
	Receiver        addressPayload `json:"receiver"`
}

type trackingEventResponse struct {
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Occurred    time.Time `json:"occurred"`
}

type shipmentResponse struct {
	ID                 string         `json:"id"`
	TrackingNumber     string         `json:"tracking_number"`
	ReferenceNumber    string         `json:"reference_number,omitempty"`
	CarrierID          string         `json:"carrier_id,omitempty"`
	Status             string         `json:"status"`
	ServiceCode        string         `json:"service_code"`
	WeightKg           float64        `json:"weight_kg"`
	LengthCm           float64        `json:"length_cm"`
	WidthCm            float64        `json:"width_cm"`
	HeightCm           float64        `json:"height_cm"`
	Contents           string         `json:"contents,omitempty"`
	Sender             addressPayload `json:"sender"`
	Receiver           addressPayload `json:"receiver"`
	EstimatedCostMinor int64          `json:"estimated_cost_minor"`
	EstimatedDelivery  *time.Time     `json:"estimated_delivery,omitempty"`
	LabelURL           string         `json:"label_url,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func toAddressPayload(a domain.Address) addressPayload {
	return addressPayload{
		Name:    a.Name,
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
		Phone:   a.Phone,
	}
}

func toDomainAddress(a addressPayload) domain.Address {
	return domain.Address{
		Name:    a.Name,
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
		Phone:   a.Phone,
	}
}

func toShipmentResponse(s domain.Shipment) shipmentResponse {
	resp := shipmentResponse{
		ID:                 s.ID,
		TrackingNumber:     s.TrackingNumber,
		ReferenceNumber:    s.ReferenceNumber,
		CarrierID:          s.CarrierID,
		Status:             string(s.Status),
		ServiceCode:        s.ServiceCode,
		WeightKg:           s.WeightKg,
		LengthCm:           s.LengthCm,
		WidthCm:            s.WidthCm,
		HeightCm:           s.HeightCm,
		Contents:           s.Contents,
		Sender:             toAddressPayload(s.Sender),
		Receiver:           toAddressPayload(s.Receiver),
		EstimatedCostMinor: s.EstimatedCostMinor,
		LabelURL:           s.LabelURL,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if !s.EstimatedDelivery.IsZero() {
		t := s.EstimatedDelivery
		resp.EstimatedDelivery = &t
	}
	return resp
}

func (h *Handler) createShipment(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	serviceType, err := h.serviceTypes.GetByCode(req.ServiceCode)
	if err != nil {
		if errors.Is(err, domain.ErrServiceTypeNotFound) {
			writeError(w, http.StatusBadRequest, "unknown service_code "+req.ServiceCode)
			return
		}
		h.internalError(w, err, "load service type")
		return
	}

	now := time.Now().UTC()
	shipment := domain.Shipment{
		TenantID:           tenantFromContext(r.Context()),
		ReferenceNumber:    req.ReferenceNumber,
		Sender:             toDomainAddress(req.Sender),
		Receiver:           toDomainAddress(req.Receiver),
		WeightKg:           req.WeightKg,
		LengthCm:           req.LengthCm,
		WidthCm:            req.WidthCm,
		HeightCm:           req.HeightCm,
		Contents:           req.Contents,
		ServiceCode:        serviceType.Code,
		EstimatedCostMinor: serviceType.QuoteMinor(req.WeightKg),
		EstimatedDelivery:  serviceType.EstimateDelivery(now),
	}

	created, err := h.engine.Register(shipment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "shipment validation failed", splitJoinedErrors(err)...)
		return
	}

	writeJSON(w, http.StatusCreated, toShipmentResponse(created))
}

func (h *Handler) listShipments(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFromContext(r.Context())

	statusFilter := domain.ShipmentStatus(r.URL.Query().Get("status"))
	if statusFilter != "" && !statusFilter.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown status filter "+string(statusFilter))
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	shipments, err := h.shipments.ListByTenant(tenantID, statusFilter, limit)
	if err != nil {
		h.internalError(w, err, "list shipments")
		return
	}

	result := make([]shipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		result = append(result, toShipmentResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"shipments": result})
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	shipment, ok := h.loadTenantShipment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toShipmentResponse(shipment))
}

type changeStatusRequest struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Location    string `json:"location"`
	ActorID     string `json:"actor_id"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	shipment, ok := h.loadTenantShipment(w, r)
	if !ok {
		return
	}

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, event, err := h.engine.Transition(shipment.ID, domain.ShipmentStatus(req.Status), status.TransitionParams{
		Description: req.Description,
		Location:    req.Location,
		ActorID:     req.ActorID,
	})
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shipment": toShipmentResponse(updated),
		"event": trackingEventResponse{
			Status:      string(event.Status),
			Description: event.Description,
			Location:    event.Location,
			Occurred:    event.Occurred,
		},
	})
}

type cancelShipmentRequest struct {
	Reason  string `json:"reason"`
	ActorID string `json:"actor_id"`
}

func (h *Handler) cancelShipment(w http.ResponseWriter, r *http.Request) {
	shipment, ok := h.loadTenantShipment(w, r)
	if !ok {
		return
	}

	var req cancelShipmentRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	description := req.Reason
	if description == "" {
		description = "Shipment cancelled by user."
	}

	updated, _, err := h.engine.Transition(shipment.ID, domain.ShipmentStatusCancelled, status.TransitionParams{
		Description: description,
		ActorID:     req.ActorID,
	})
	if err != nil {
		if domain.IsInvalidTransition(err) && !shipment.Status.CanTransitionTo(domain.ShipmentStatusCancelled) {
			writeError(w, http.StatusBadRequest,
				"shipment is already in transit and cannot be cancelled directly, contact support to arrange a return")
			return
		}
		h.writeTransitionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toShipmentResponse(updated))
}

type assignCarrierRequest struct {
	CarrierID string `json:"carrier_id"`
}

// assignCarrier меняет перевозчика без смены статуса: уведомления не
// рассылаются, история не пополняется.
func (h *Handler) assignCarrier(w http.ResponseWriter, r *http.Request) {
	shipment, ok := h.loadTenantShipment(w, r)
	if !ok {
		return
	}

	var req assignCarrierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CarrierID == "" {
		writeError(w, http.StatusBadRequest, "carrier_id is required")
		return
	}

	shipment.CarrierID = req.CarrierID
	shipment.UpdatedAt = time.Now().UTC()

	if err := h.shipments.Save(shipment); err != nil {
		if domain.IsVersionConflict(err) {
			writeError(w, http.StatusConflict, "shipment was modified concurrently, retry the request")
			return
		}
		h.internalError(w, err, "assign carrier")
		return
	}
	shipment.Version++

	writeJSON(w, http.StatusOK, toShipmentResponse(shipment))
}

func (h *Handler) deleteShipment(w http.ResponseWriter, r *http.Request) {
	shipment, ok := h.loadTenantShipment(w, r)
	if !ok {
		return
	}

	if err := h.engine.Delete(shipment.ID); err != nil {
		if errors.Is(err, domain.ErrShipmentNotDeletable) {
			writeError(w, http.StatusConflict, "only shipments that have not entered transit can be deleted")
			return
		}
		if errors.Is(err, domain.ErrShipmentNotFound) {
			writeError(w, http.StatusNotFound, "shipment not found")
			return
		}
		h.internalError(w, err, "delete shipment")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

type rateQuoteRequest struct {
	WeightKg float64 `json:"weight_kg"`
}

type rateQuoteResponse struct {
	ServiceCode       string    `json:"service_code"`
	Name              string    `json:"name"`
	TotalMinor        int64     `json:"total_minor"`
	EstimatedDaysMin  int       `json:"estimated_days_min"`
	EstimatedDaysMax  int       `json:"estimated_days_max"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

func (h *Handler) quoteRates(w http.ResponseWriter, r *http.Request) {
	var weight float64

	switch r.Method {
	case http.MethodPost:
		var req rateQuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		weight = req.WeightKg
	default:
		raw := r.URL.Query().Get("weight_kg")
		if raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "weight_kg must be a number")
				return
			}
			weight = parsed
		}
	}

	if weight <= 0 {
		writeError(w, http.StatusBadRequest, "weight_kg must be greater than zero")
		return
	}

	types, err := h.serviceTypes.ListActive()
	if err != nil {
		h.internalError(w, err, "list service types")
		return
	}

	now := time.Now().UTC()
	quotes := make([]rateQuoteResponse, 0, len(types))
	for _, t := range types {
		quotes = append(quotes, rateQuoteResponse{
			ServiceCode:       t.Code,
			Name:              t.Name,
			TotalMinor:        t.QuoteMinor(weight),
			EstimatedDaysMin:  t.EstimatedDaysMin,
			EstimatedDaysMax:  t.EstimatedDaysMax,
			EstimatedDelivery: t.EstimateDelivery(now),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"rates": quotes})
}

type trackResponse struct {
	TrackingNumber    string                  `json:"tracking_number"`
	Status            string                  `json:"status"`
	ReferenceNumber   string                  `json:"reference_number,omitempty"`
	EstimatedDelivery *time.Time              `json:"estimated_delivery,omitempty"`
	UpdatedAt         time.Time               `json:"updated_at"`
	History           []trackingEventResponse `json:"history"`
}

func (h *Handler) trackShipment(w http.ResponseWriter, r *http.Request) {
	trackingNumber := chi.URLParam(r, "trackingNumber")

	shipment, err := h.shipments.GetByTrackingNumber(trackingNumber)
	if err != nil {
		if errors.Is(err, domain.ErrShipmentNotFound) {
			writeError(w, http.StatusNotFound, "tracking number not found")
			return
		}
		h.internalError(w, err, "track shipment")
		return
	}

	events, err := h.tracking.List(shipment.ID)
	if err != nil {
		h.internalError(w, err, "load tracking history")
		return
	}

	history := make([]trackingEventResponse, 0, len(events))
	for _, event := range events {
		history = append(history, trackingEventResponse{
			Status:      string(event.Status),
			Description: event.Description,
			Location:    event.Location,
			Occurred:    event.Occurred,
		})
	}

	resp := trackResponse{
		TrackingNumber:  shipment.TrackingNumber,
		Status:          string(shipment.Status),
		ReferenceNumber: shipment.ReferenceNumber,
		UpdatedAt:       shipment.UpdatedAt,
		History:         history,
	}
	if !shipment.EstimatedDelivery.IsZero() {
		t := shipment.EstimatedDelivery
		resp.EstimatedDelivery = &t
	}

	writeJSON(w, http.StatusOK, resp)
}

// loadTenantShipment достаёт отправление и проверяет принадлежность тенанту.
// Чужие отправления неотличимы от несуществующих.
func (h *Handler) loadTenantShipment(w http.ResponseWriter, r *http.Request) (domain.Shipment, bool) {
	id := chi.URLParam(r, "id")

	shipment, err := h.shipments.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrShipmentNotFound) {
			writeError(w, http.StatusNotFound, "shipment not found")
			return domain.Shipment{}, false
		}
		h.internalError(w, err, "load shipment")
		return domain.Shipment{}, false
	}
	if shipment.TenantID != tenantFromContext(r.Context()) {
		writeError(w, http.StatusNotFound, "shipment not found")
		return domain.Shipment{}, false
	}

	return shipment, true
}

func (h *Handler) writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsInvalidTransition(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStatusConflict), domain.IsVersionConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrShipmentNotFound):
		writeError(w, http.StatusNotFound, "shipment not found")
	default:
		h.internalError(w, err, "transition")
	}
}

func (h *Handler) internalError(w http.ResponseWriter, err error, op string) {
	h.logger.WithError(err).Error("request failed: " + op)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// splitJoinedErrors разворачивает errors.Join в список сообщений для ответа.
func splitJoinedErrors(err error) []string {
	type unwrapper interface {
		Unwrap() []error
	}

	joined, ok := err.(unwrapper)
	if !ok {
		return []string{err.Error()}
	}

	errs := joined.Unwrap()
	details := make([]string, 0, len(errs))
	for _, e := range errs {
		details = append(details, e.Error())
	}
	return details
}
