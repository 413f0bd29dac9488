package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/delivery/http/middlewares"
	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/dto/requests"
	"scribe-service/internal/pkg/exceptions"
	"scribe-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type ScribeController struct {
	Log           *zap.Logger
	ScribeUsecase contracts.ScribeUsecase
}

var (
	scribeControllerInstance *ScribeController
	onceScribeController     sync.Once
)

func NewScribeController(logger *zap.Logger, scribeUsecase contracts.ScribeUsecase) *ScribeController {
	onceScribeController.Do(func() {
		scribeControllerInstance = &ScribeController{
			Log:           logger,
			ScribeUsecase: scribeUsecase,
		}
	})
	return scribeControllerInstance
}

func (ctrl *ScribeController) CreateScribe(w http.ResponseWriter, r *http.Request) {
	session, ok := middlewares.SessionFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}

	request := new(requests.CreateScribe)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	response, err := ctrl.ScribeUsecase.CreateScribe(ctx, session, request)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.ScribeCreatedSuccess, response)
}

func (ctrl *ScribeController) GetScribeByID(w http.ResponseWriter, r *http.Request) {
	session, ok := middlewares.SessionFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}
	scribeID := chi.URLParam(r, "scribeID")
	if scribeID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(nil, "scribeID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	response, err := ctrl.ScribeUsecase.GetScribeByID(ctx, session, scribeID)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ScribeGetSuccess, response)
}

func (ctrl *ScribeController) MarkReady(w http.ResponseWriter, r *http.Request) {
	session, ok := middlewares.SessionFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}
	scribeID := chi.URLParam(r, "scribeID")
	if scribeID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(nil, "scribeID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := ctrl.ScribeUsecase.MarkReady(ctx, session, scribeID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusAccepted, constvars.ScribeReadySuccess, nil)
}

func (ctrl *ScribeController) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	session, ok := middlewares.SessionFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}
	scribeID := chi.URLParam(r, "scribeID")
	if scribeID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(nil, "scribeID"))
		return
	}

	request := new(requests.ScribeFeedback)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := ctrl.ScribeUsecase.SubmitFeedback(ctx, session, scribeID, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ScribeFeedbackSuccess, nil)
}
