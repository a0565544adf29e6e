package inbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/router"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
	"github.com/shandysiswandi/otpsession/internal/session/usecase"
)

type uc interface {
	ObtainSession(ctx context.Context, in usecase.ObtainSessionInput) (*usecase.ObtainSessionOutput, error)
	ConfirmSession(ctx context.Context, in usecase.ConfirmSessionInput) (*entity.Session, error)
	SessionDetail(ctx context.Context, in usecase.SessionDetailInput) (*entity.Session, error)
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}
	auth := router.Authentication(bearerGate(uc))

	r.POST("/session/", end.ObtainSession)

	// need authenticated
	r.GET("/session/:id/", end.SessionDetail, auth)
	r.PATCH("/session/:id/", end.ConfirmSession, auth)
	r.PUT("/session/:id/", end.ConfirmSession, auth)
}
