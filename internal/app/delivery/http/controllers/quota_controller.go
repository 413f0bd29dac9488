package controllers

import (
	"context"
	"net/http"
	"sync"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/delivery/http/middlewares"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/exceptions"
	"scribe-service/internal/pkg/utils"

	"go.uber.org/zap"
)

type QuotaController struct {
	Log          *zap.Logger
	QuotaUsecase contracts.QuotaUsecase
}

var (
	quotaControllerInstance *QuotaController
	onceQuotaController     sync.Once
)

func NewQuotaController(logger *zap.Logger, quotaUsecase contracts.QuotaUsecase) *QuotaController {
	onceQuotaController.Do(func() {
		quotaControllerInstance = &QuotaController{
			Log:          logger,
			QuotaUsecase: quotaUsecase,
		}
	})
	return quotaControllerInstance
}

func (ctrl *QuotaController) GetMyQuota(w http.ResponseWriter, r *http.Request) {
	session, ok := middlewares.SessionFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snapshot, err := ctrl.QuotaUsecase.Snapshot(ctx, session.UserID, session.FacilityID)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.QuotaGetSuccess, snapshot)
}

func (ctrl *QuotaController) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	session, ok := middlewares.SessionFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := ctrl.QuotaUsecase.AcceptTerms(ctx, session.UserID, session.FacilityID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.TermsAcceptedSuccess, nil)
}
