package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"innkeeper/internal/auth"
	"innkeeper/internal/domain"
	"innkeeper/internal/idempotency"
	"innkeeper/internal/observability"
	"innkeeper/internal/service"
)

type Handlers struct {
	reservations *service.ReservationService
	guests       *service.GuestService
	reports      *service.ReportService
	idemp        *idempotency.Idempotency
	logger       observability.Logger
	validate     *validator.Validate
}

func NewHandlers(reservations *service.ReservationService, guests *service.GuestService, reports *service.ReportService, idemp *idempotency.Idempotency, logger observability.Logger) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonTagName)
	return &Handlers{
		reservations: reservations,
		guests:       guests,
		reports:      reports,
		idemp:        idemp,
		logger:       logger,
		validate:     v,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) []byte {
	data, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	return data
}

// writeError maps the error's kind to a status code and emits the
// caller-facing message verbatim. Unclassified errors become an opaque
// 500 so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrRoomConflict):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrDuplicateDocument):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		message = err.Error()
	}

	writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handlers) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := h.validate.Struct(v); err != nil {
		return domain.Validationf("%s", validationMessage(err))
	}
	return nil
}

func subjectFrom(r *http.Request) string {
	if claims := auth.ClaimsFrom(r.Context()); claims != nil {
		return claims.Subject()
	}
	return ""
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.Validationf("invalid reservation id")
	}
	return id, nil
}

type reservationResponse struct {
	ID            uuid.UUID `json:"id"`
	UserID        int64     `json:"userId"`
	GuestID       int64     `json:"guestId"`
	RoomID        int64     `json:"roomId"`
	CheckIn       string    `json:"checkIn"`
	CheckOut      string    `json:"checkOut"`
	CheckedIn     bool      `json:"checkedIn"`
	CheckedOut    bool      `json:"checkedOut"`
	Cancelled     bool      `json:"cancelled"`
	PaymentStatus string    `json:"paymentStatus"`
	Amount        float64   `json:"amount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toReservationResponse(r *domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		GuestID:       r.GuestID,
		RoomID:        r.RoomID,
		CheckIn:       r.CheckIn.Format(domain.DateLayout),
		CheckOut:      r.CheckOut.Format(domain.DateLayout),
		CheckedIn:     r.CheckedIn,
		CheckedOut:    r.CheckedOut,
		Cancelled:     r.Cancelled,
		PaymentStatus: string(r.PaymentStatus),
		Amount:        r.Amount,
		CreatedAt:     r.CreatedAt,
	}
}

func toReservationResponses(rs []domain.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(rs))
	for i := range rs {
		out = append(out, toReservationResponse(&rs[i]))
	}
	return out
}

type createReservationRequest struct {
	UserID   int64  `json:"userId" validate:"required,gt=0"`
	GuestID  int64  `json:"guestId" validate:"omitempty,gt=0"`
	RoomID   int64  `json:"roomId" validate:"required,gt=0"`
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
}

func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if h.idemp != nil {
		if replay, err := h.idemp.Get(r.Context(), key); err == nil && replay != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(replay.Status)
			w.Write(replay.Result)
			return
		}
	}

	var req createReservationRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.reservations.Create(r.Context(), subjectFrom(r), service.CreateReservationInput{
		UserID:   req.UserID,
		GuestID:  req.GuestID,
		RoomID:   req.RoomID,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	data := writeJSON(w, http.StatusCreated, toReservationResponse(created))
	if h.idemp != nil {
		h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
	}
}

func (h *Handlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.reservations.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	all, err := h.reservations.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(all))
}

func (h *Handlers) ListActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.reports.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(active))
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, fn func(*http.Request, uuid.UUID) (*domain.Reservation, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := fn(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(updated))
}

func (h *Handlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id uuid.UUID) (*domain.Reservation, error) {
		return h.reservations.CheckIn(r.Context(), subjectFrom(r), id)
	})
}

func (h *Handlers) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id uuid.UUID) (*domain.Reservation, error) {
		return h.reservations.CheckOut(r.Context(), subjectFrom(r), id)
	})
}

func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id uuid.UUID) (*domain.Reservation, error) {
		return h.reservations.Cancel(r.Context(), subjectFrom(r), id)
	})
}

type updatePaymentRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handlers) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req updatePaymentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.transition(w, r, func(r *http.Request, id uuid.UUID) (*domain.Reservation, error) {
		return h.reservations.UpdatePaymentStatus(r.Context(), subjectFrom(r), id, req.Status)
	})
}

type updateAmountRequest struct {
	Amount *float64 `json:"amount" validate:"required"`
}

func (h *Handlers) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	var req updateAmountRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.transition(w, r, func(r *http.Request, id uuid.UUID) (*domain.Reservation, error) {
		return h.reservations.UpdateAmount(r.Context(), subjectFrom(r), id, *req.Amount)
	})
}

type guestResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

func toGuestResponse(g *domain.Guest) guestResponse {
	return guestResponse{
		ID:        g.ID,
		Name:      g.Name,
		Document:  g.Document,
		Email:     g.Email,
		Phone:     g.Phone,
		CreatedAt: g.CreatedAt,
	}
}

type registerGuestRequest struct {
	Name     string `json:"name" validate:"required"`
	Document string `json:"document" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
}

func (h *Handlers) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if h.idemp != nil {
		if replay, err := h.idemp.Get(r.Context(), key); err == nil && replay != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(replay.Status)
			w.Write(replay.Result)
			return
		}
	}

	var req registerGuestRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	g, err := h.guests.Register(r.Context(), subjectFrom(r), service.RegisterGuestInput{
		Name:     req.Name,
		Document: req.Document,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	data := writeJSON(w, http.StatusCreated, toGuestResponse(g))
	if h.idemp != nil {
		h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
	}
}

func (h *Handlers) ListGuests(w http.ResponseWriter, r *http.Request) {
	all, err := h.guests.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]guestResponse, 0, len(all))
	for i := range all {
		out = append(out, toGuestResponse(&all[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, domain.Validationf("%s is required", name)
	}
	d, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, domain.Validationf("%s must be a valid date (YYYY-MM-DD)", name)
	}
	return d, nil
}

func (h *Handlers) Occupancy(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, err)
		return
	}
	occupied, err := h.reports.OccupancyAt(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occupied)
}

func (h *Handlers) Revenue(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}
	rev, err := h.reports.RevenueBetween(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
