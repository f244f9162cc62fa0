package handlers

import (
	"errors"
	"strconv"

	"github.com/SundayYogurt/school_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/school_service/internal/dto"
	"github.com/SundayYogurt/school_service/internal/helper"
	"github.com/SundayYogurt/school_service/internal/helper/utils"
	"github.com/SundayYogurt/school_service/internal/services"
	"github.com/SundayYogurt/school_service/pkg/logger"
	pkgutils "github.com/SundayYogurt/school_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	MaxImageSize = 5 * 1024 * 1024 // 5MB

	MsgRecoverySent = "If this email exists, a recovery link has been sent"
)

type SchoolHandler struct {
	svc  services.SchoolService
	auth helper.Auth
	log  *zap.Logger
}

func NewSchoolHandler(svc services.SchoolService, auth helper.Auth) *SchoolHandler {
	return &SchoolHandler{
		svc:  svc,
		auth: auth,
		log:  logger.WithModule("http"),
	}
}

func (h *SchoolHandler) SetupRoutes(app *fiber.App) {
	// Auth
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)
	app.Post("/verifyemail/:token", h.VerifyEmail)
	app.Post("/recoveraccount", h.RecoverAccount)
	app.Post("/resetpassword/:token", h.ResetPassword)

	// Records
	app.Get("/users", h.GetAllUsers)
	app.Get("/users/:id", h.GetUser)
	app.Delete("/users/:id", h.DeleteUser)

	app.Get("/me", middleware.AuthMiddleware(h.auth), h.Me)
}

// Register godoc
// @Summary Register a school
// @Tags auth
// @Accept multipart/form-data,json
// @Produce json
// @Param image formData file false "School image (jpeg/png/webp, max 5MB)"
// @Success 201 {object} dto.APISuccessSchool
// @Failure 400 {object} dto.APIError
// @Failure 500 {object} dto.APIError
// @Router /register [post]
func (h *SchoolHandler) Register(ctx *fiber.Ctx) error {
	var requestBody dto.RegisterRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	image, err := readImage(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}

	school, err := h.svc.Register(ctx.UserContext(), requestBody, image)
	if err != nil {
		return h.fail(ctx, err)
	}
	return utils.ResponseCreated(ctx, "School registered successfully.", school)
}

// Login godoc
// @Summary Log in and receive a 7 day bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.APIError
// @Failure 401 {object} dto.APIError
// @Failure 404 {object} dto.APIError
// @Router /login [post]
func (h *SchoolHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.LoginRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	resp, err := h.svc.Login(ctx.UserContext(), requestBody)
	if err != nil {
		return h.fail(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(resp)
}

// VerifyEmail godoc
// @Summary Confirm an email address
// @Tags auth
// @Produce json
// @Param token path string true "Verification token"
// @Success 200 {object} dto.APIMessage
// @Failure 400 {object} dto.APIError
// @Failure 500 {object} dto.APIError
// @Router /verifyemail/{token} [post]
func (h *SchoolHandler) VerifyEmail(ctx *fiber.Ctx) error {
	if err := h.svc.VerifyEmail(ctx.UserContext(), ctx.Params("token")); err != nil {
		return h.fail(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Email verified successfully")
}

// RecoverAccount godoc
// @Summary Request a password reset link
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RecoverAccountRequest true "Account email"
// @Success 200 {object} dto.APIMessage
// @Failure 500 {object} dto.APIError
// @Router /recoveraccount [post]
func (h *SchoolHandler) RecoverAccount(ctx *fiber.Ctx) error {
	var requestBody dto.RecoverAccountRequest
	// an unparsable body is treated like an unknown email
	_ = ctx.BodyParser(&requestBody)

	if err := h.svc.RecoverAccount(ctx.UserContext(), requestBody.Email); err != nil {
		return h.fail(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, MsgRecoverySent)
}

// ResetPassword godoc
// @Summary Set a new password with a recovery token
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Recovery token"
// @Param body body dto.ResetPasswordRequest true "New password"
// @Success 200 {object} dto.APIMessage
// @Failure 400 {object} dto.APIError
// @Failure 500 {object} dto.APIError
// @Router /resetpassword/{token} [post]
func (h *SchoolHandler) ResetPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ResetPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid input")
	}

	if err := h.svc.ResetPassword(ctx.UserContext(), ctx.Params("token"), requestBody); err != nil {
		return h.fail(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Password reset successfully")
}

// GetAllUsers godoc
// @Summary List schools
// @Tags users
// @Produce json
// @Success 200 {object} dto.APISuccessSchools
// @Router /users [get]
func (h *SchoolHandler) GetAllUsers(ctx *fiber.Ctx) error {
	schools, err := h.svc.GetAllSchools(ctx.UserContext())
	if err != nil {
		return h.fail(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, schools)
}

// GetUser godoc
// @Summary Get a school by id
// @Tags users
// @Produce json
// @Param id path int true "School id"
// @Success 200 {object} dto.APISuccessSchool
// @Failure 404 {object} dto.APIError
// @Router /users/{id} [get]
func (h *SchoolHandler) GetUser(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}

	school, err := h.svc.GetSchool(ctx.UserContext(), id)
	if err != nil {
		return h.fail(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, school)
}

// DeleteUser godoc
// @Summary Delete a school by id
// @Tags users
// @Produce json
// @Param id path int true "School id"
// @Success 200 {object} dto.APIMessage
// @Failure 404 {object} dto.APIError
// @Router /users/{id} [delete]
func (h *SchoolHandler) DeleteUser(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}

	if err := h.svc.DeleteSchool(ctx.UserContext(), id); err != nil {
		return h.fail(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "User deleted successfully")
}

// Me godoc
// @Summary Current school
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APISuccessSchool
// @Failure 401 {object} dto.APIError
// @Router /me [get]
func (h *SchoolHandler) Me(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentUser(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	school, err := h.svc.GetSchool(ctx.UserContext(), claims.SchoolID)
	if err != nil {
		return h.fail(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, school)
}

// fail renders service errors. Anything that is not a client error is logged
// and collapsed into a generic 500.
func (h *SchoolHandler) fail(ctx *fiber.Ctx, err error) error {
	appErr := helper.AsAppError(err)
	status := appErr.StatusCode()

	if status >= fiber.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Route().Path),
			zap.String("op", appErr.Message),
			zap.Error(appErr.Err),
		)
		return utils.ResponseError(ctx, status, utils.ServerErrorMessage)
	}
	if len(appErr.Fields) > 0 {
		return utils.ResponseValidation(ctx, appErr.Message, appErr.Fields)
	}
	return utils.ResponseError(ctx, status, appErr.Message)
}

// readImage returns the optional "image" multipart file, or nil when none was sent.
func readImage(ctx *fiber.Ctx) ([]byte, error) {
	file, err := ctx.FormFile("image")
	if err != nil || file == nil {
		return nil, nil
	}
	if file.Size > MaxImageSize {
		return nil, pkgutils.ErrTooLarge
	}

	f, err := file.Open()
	if err != nil {
		return nil, errors.New("cannot open uploaded file")
	}
	defer f.Close()

	return pkgutils.ReadAllLimit(f, MaxImageSize)
}

func parseID(ctx *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
