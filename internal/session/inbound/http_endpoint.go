package inbound

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/pkg/router"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
	"github.com/shandysiswandi/otpsession/internal/session/usecase"
)

var errSessionNotFound = goerror.NewBusiness("Session not found", goerror.CodeNotFound)

// HTTPEndpoint exposes the session lifecycle over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// ObtainSession returns the live session of a user and device, creating one when needed.
// @Summary Obtain session
// @Description Resolves the user by email and the device by type and vendor uuid, then reuses the live session or creates a pending one. The OTP code is delivered out of band.
// @Tags Session
// @Accept json
// @Produce json
// @Param request body ObtainSessionRequest true "Obtain session payload"
// @Success 201 {object} SessionResponse "Session created"
// @Success 200 {object} SessionResponse "Session reused"
// @Failure 400 {object} router.errorResponse "Invalid data or invalid JSON"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /session/ [post]
func (h *HTTPEndpoint) ObtainSession(r *router.Request) (any, error) {
	var req ObtainSessionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.ObtainSession(r.Context(), usecase.ObtainSessionInput{
		Email:      req.User.Email,
		DeviceKind: req.Device.Type,
		VendorID:   req.Device.VendorUUID,
	})
	if err != nil {
		return nil, err
	}

	return newSessionResponse(out.Session, lo.Ternary(out.Created, http.StatusCreated, http.StatusOK)), nil
}

// ConfirmSession confirms a pending session with its OTP code.
// @Summary Confirm session
// @Description Confirms the session when the OTP code matches inside the confirmation window. The bearer token must belong to the same session.
// @Tags Session
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session id" example(ses-0b8f4f5e-6a43-4c55-9c43-3a1e2a8f2b61)
// @Param request body ConfirmSessionRequest true "Confirm session payload"
// @Success 200 {object} SessionResponse "Session confirmed"
// @Failure 400 {object} router.errorResponse "Invalid OTP code or invalid JSON"
// @Failure 401 {object} router.errorResponse "Unauthorized or session expired"
// @Failure 404 {object} router.errorResponse "Session not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /session/{id}/ [patch]
func (h *HTTPEndpoint) ConfirmSession(r *router.Request) (any, error) {
	id, err := sessionIDParam(r)
	if err != nil {
		return nil, err
	}

	var req ConfirmSessionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	ss, err := h.uc.ConfirmSession(r.Context(), usecase.ConfirmSessionInput{
		SessionID:     id,
		AuthSessionID: authSessionID(r.Context()),
		OTPCode:       string(req.OTPCode),
	})
	if err != nil {
		return nil, err
	}

	return newSessionResponse(*ss, http.StatusOK), nil
}

// SessionDetail returns the session owning the bearer token.
// @Summary Session detail
// @Description Returns the stored session. The bearer token must belong to the same session.
// @Tags Session
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session id"
// @Success 200 {object} SessionResponse "Session"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Session not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /session/{id}/ [get]
func (h *HTTPEndpoint) SessionDetail(r *router.Request) (any, error) {
	id, err := sessionIDParam(r)
	if err != nil {
		return nil, err
	}

	ss, err := h.uc.SessionDetail(r.Context(), usecase.SessionDetailInput{
		SessionID:     id,
		AuthSessionID: authSessionID(r.Context()),
	})
	if err != nil {
		return nil, err
	}

	return newSessionResponse(*ss, http.StatusOK), nil
}

func sessionIDParam(r *router.Request) (uuid.UUID, error) {
	id, err := entity.ParseID(entity.PrefixSession, r.GetParam("id"))
	if err != nil {
		return uuid.Nil, errSessionNotFound
	}
	return id, nil
}
