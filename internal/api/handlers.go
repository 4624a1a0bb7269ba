package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"jethotel/internal/access"
	"jethotel/internal/models"
	"jethotel/internal/service"
)

// CreateReservationRequest is the body of POST /api/reservations.
type CreateReservationRequest struct {
	RoomID   int64  `json:"room_id"`
	CheckIn  string `json:"check_in"`  // YYYY-MM-DD
	CheckOut string `json:"check_out"` // YYYY-MM-DD
}

// RoomRequest is the body of the admin room endpoints.
type RoomRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"` // "150.00"
	Description string `json:"description"`
	Image       string `json:"image"`
	Available   *bool  `json:"available,omitempty"`
}

func (req RoomRequest) model() (*models.Room, error) {
	price, err := models.ParseCents(req.Price)
	if err != nil {
		return nil, err
	}
	return &models.Room{
		Name:        req.Name,
		PriceCents:  price,
		Description: req.Description,
		Image:       req.Image,
		Available:   req.Available == nil || *req.Available,
	}, nil
}

type warningsResponse struct {
	Status   string   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`
}

// handleListRooms lists every room with an availability flag.
// GET /api/rooms?check_in=YYYY-MM-DD&check_out=YYYY-MM-DD
func (s *HTTPServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	inStr, outStr := q.Get("check_in"), q.Get("check_out")

	var checkIn, checkOut *time.Time
	if inStr != "" || outStr != "" {
		if inStr == "" || outStr == "" {
			writeError(w, http.StatusBadRequest, "check_in and check_out must be given together")
			return
		}
		in, err := models.ParseDay(inStr)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		out, err := models.ParseDay(outStr)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		checkIn, checkOut = &in, &out
	}

	rooms, err := s.booking.Availability.HomeListing(r.Context(), checkIn, checkOut)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// handleRegister creates a guest account.
// POST /api/users
func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.NewUser
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	u, warnings, err := s.booking.RegisterUser(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u, "warnings": warnings})
}

// POST /api/reservations
func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RoomID <= 0 || req.CheckIn == "" || req.CheckOut == "" {
		writeError(w, http.StatusBadRequest, "room_id, check_in and check_out are required")
		return
	}
	in, err := models.ParseDay(req.CheckIn)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out, err := models.ParseDay(req.CheckOut)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	res, err := s.booking.CreateReservation(r.Context(), actorFrom(r), req.RoomID, in, out)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /api/reservations
func (s *HTTPServer) handleUserReservations(w http.ResponseWriter, r *http.Request) {
	list, err := s.booking.UserReservations(r.Context(), actorFrom(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

// DELETE /api/admin/reservations/{id}
func (s *HTTPServer) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	warnings, err := s.booking.CancelReservation(r.Context(), actorFrom(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, warningsResponse{Status: "cancelled", Warnings: warnings})
}

// GET /api/transactions
func (s *HTTPServer) handleUserTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := s.booking.UserTransactions(r.Context(), actorFrom(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": list})
}

// POST /api/transactions/{id}/confirm
func (s *HTTPServer) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.booking.ConfirmPayment(r.Context(), actorFrom(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/admin/transactions/{id}/approve
func (s *HTTPServer) handleApprovePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.booking.ApprovePayment(r.Context(), actorFrom(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/notifications
func (s *HTTPServer) handleUserNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.booking.UserInbox(r.Context(), actorFrom(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// POST /api/notifications/{id}/read
func (s *HTTPServer) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.booking.MarkRead(r.Context(), actorFrom(r), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/admin/notifications?limit=N
func (s *HTTPServer) handleAdminNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	list, err := s.booking.AdminInbox(r.Context(), actorFrom(r), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// GET /api/admin/dashboard
func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.booking.Dashboard(r.Context(), actorFrom(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// POST /api/admin/rooms
func (s *HTTPServer) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	room, err := req.model()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.booking.AddRoom(r.Context(), actorFrom(r), room); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// PUT /api/admin/rooms/{id}
func (s *HTTPServer) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req RoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	room, err := req.model()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	room.ID = id
	if err := s.booking.UpdateRoom(r.Context(), actorFrom(r), room); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// DELETE /api/admin/rooms/{id}
func (s *HTTPServer) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.booking.DeleteRoom(r.Context(), actorFrom(r), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReport streams the audit workbook.
// GET /api/admin/report.xlsx
func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if err := access.RequireAdmin(actorFrom(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if s.reports == nil {
		writeError(w, http.StatusNotFound, "reports are disabled")
		return
	}

	var buf bytes.Buffer
	if err := s.reports.WriteReport(r.Context(), &buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	name := fmt.Sprintf("jethotel_report_%s.xlsx", time.Now().UTC().Format(models.DateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(buf.Bytes())
}
