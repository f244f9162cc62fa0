package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SundayYogurt/school_service/internal/dto"
	"github.com/SundayYogurt/school_service/internal/helper"
	"github.com/SundayYogurt/school_service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type mockSchoolService struct {
	registerFn func(ctx context.Context, input dto.RegisterRequest, image []byte) (*dto.SchoolResponse, error)
	loginFn    func(ctx context.Context, input dto.LoginRequest) (*dto.LoginResponse, error)
	verifyFn   func(ctx context.Context, token string) error
	recoverFn  func(ctx context.Context, email string) error
	resetFn    func(ctx context.Context, token string, input dto.ResetPasswordRequest) error
	getFn      func(ctx context.Context, id uint) (*dto.SchoolDetail, error)
	getAllFn   func(ctx context.Context) ([]dto.SchoolDetail, error)
	deleteFn   func(ctx context.Context, id uint) error
}

func (m *mockSchoolService) Register(ctx context.Context, input dto.RegisterRequest, image []byte) (*dto.SchoolResponse, error) {
	return m.registerFn(ctx, input, image)
}

func (m *mockSchoolService) Login(ctx context.Context, input dto.LoginRequest) (*dto.LoginResponse, error) {
	return m.loginFn(ctx, input)
}

func (m *mockSchoolService) VerifyEmail(ctx context.Context, token string) error {
	return m.verifyFn(ctx, token)
}

func (m *mockSchoolService) RecoverAccount(ctx context.Context, email string) error {
	return m.recoverFn(ctx, email)
}

func (m *mockSchoolService) ResetPassword(ctx context.Context, token string, input dto.ResetPasswordRequest) error {
	return m.resetFn(ctx, token, input)
}

func (m *mockSchoolService) GetSchool(ctx context.Context, id uint) (*dto.SchoolDetail, error) {
	return m.getFn(ctx, id)
}

func (m *mockSchoolService) GetAllSchools(ctx context.Context) ([]dto.SchoolDetail, error) {
	return m.getAllFn(ctx)
}

func (m *mockSchoolService) DeleteSchool(ctx context.Context, id uint) error {
	return m.deleteFn(ctx, id)
}

var testAuth = helper.SetupAuth("test-secret")

func newTestApp(svc *mockSchoolService) *fiber.App {
	app := fiber.New()
	NewSchoolHandler(svc, testAuth).SetupRoutes(app)
	return app
}

type apiBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Token   string              `json:"token"`
	Data    json.RawMessage     `json:"data"`
	Errors  []helper.FieldError `json:"errors"`
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, apiBody, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body apiBody
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body, raw
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func multipartRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "logo.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

var registrationFields = map[string]string{
	"email":           "admin@school.example.com",
	"password":        "Secret#1",
	"confirmpassword": "Secret#1",
	"name":            "Central High",
	"description":     "A school",
	"phone":           "0800000000",
	"address":         "1 Main Road",
}

func TestRegisterMultipart(t *testing.T) {
	var gotInput dto.RegisterRequest
	var gotImage []byte
	svc := &mockSchoolService{
		registerFn: func(_ context.Context, input dto.RegisterRequest, image []byte) (*dto.SchoolResponse, error) {
			gotInput, gotImage = input, image
			return &dto.SchoolResponse{ID: 7, Email: input.Email, Name: input.Name}, nil
		},
	}

	status, body, _ := do(t, newTestApp(svc), multipartRequest(t, registrationFields, []byte("image-bytes")))

	require.Equal(t, http.StatusCreated, status)
	require.True(t, body.Success)
	require.Equal(t, "School registered successfully.", body.Message)
	require.Equal(t, "admin@school.example.com", gotInput.Email)
	require.Equal(t, "Secret#1", gotInput.ConfirmPassword)
	require.Equal(t, "1 Main Road", gotInput.Address)
	require.Equal(t, []byte("image-bytes"), gotImage)

	var school dto.SchoolResponse
	require.NoError(t, json.Unmarshal(body.Data, &school))
	require.Equal(t, uint(7), school.ID)
}

func TestRegisterWithoutImage(t *testing.T) {
	var gotImage []byte
	svc := &mockSchoolService{
		registerFn: func(_ context.Context, input dto.RegisterRequest, image []byte) (*dto.SchoolResponse, error) {
			gotImage = image
			return &dto.SchoolResponse{ID: 1, Email: input.Email}, nil
		},
	}

	status, _, _ := do(t, newTestApp(svc), multipartRequest(t, registrationFields, nil))
	require.Equal(t, http.StatusCreated, status)
	require.Nil(t, gotImage)
}

func TestRegisterImageTooLarge(t *testing.T) {
	called := false
	svc := &mockSchoolService{
		registerFn: func(context.Context, dto.RegisterRequest, []byte) (*dto.SchoolResponse, error) {
			called = true
			return nil, nil
		},
	}
	app := fiber.New(fiber.Config{BodyLimit: MaxImageSize * 2})
	NewSchoolHandler(svc, testAuth).SetupRoutes(app)

	status, body, _ := do(t, app, multipartRequest(t, registrationFields, make([]byte, MaxImageSize+1)))
	require.Equal(t, http.StatusBadRequest, status)
	require.False(t, body.Success)
	require.False(t, called)
}

func TestRegisterServiceErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &helper.AppError{Kind: helper.KindValidation, Message: "phone is required!", Fields: []helper.FieldError{{Field: "phone", Tag: "required", Message: "phone is required!"}}}, http.StatusBadRequest, "phone is required!"},
		{"conflict", helper.NewConflictError(services.MsgEmailTaken), http.StatusBadRequest, services.MsgEmailTaken},
		{"upstream", helper.Upstream("upload image", errors.New("cloudinary down")), http.StatusInternalServerError, "Server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSchoolService{
				registerFn: func(context.Context, dto.RegisterRequest, []byte) (*dto.SchoolResponse, error) {
					return nil, tc.err
				},
			}
			status, body, _ := do(t, newTestApp(svc), multipartRequest(t, registrationFields, nil))
			require.Equal(t, tc.status, status)
			require.False(t, body.Success)
			require.Equal(t, tc.message, body.Message)
		})
	}
}

func TestLoginStatuses(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", helper.NewNotFoundError(services.MsgUserNotFound), http.StatusNotFound, services.MsgUserNotFound},
		{"wrong password", helper.NewUnauthorizedError(services.MsgInvalidCredentials), http.StatusUnauthorized, services.MsgInvalidCredentials},
		{"unverified", helper.NewNotVerifiedError(services.MsgEmailNotVerified), http.StatusBadRequest, services.MsgEmailNotVerified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSchoolService{
				loginFn: func(context.Context, dto.LoginRequest) (*dto.LoginResponse, error) {
					return nil, tc.err
				},
			}
			status, body, _ := do(t, newTestApp(svc), jsonRequest(http.MethodPost, "/login", `{"email":"a@b.c","password":"x"}`))
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.message, body.Message)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	var got dto.LoginRequest
	svc := &mockSchoolService{
		loginFn: func(_ context.Context, input dto.LoginRequest) (*dto.LoginResponse, error) {
			got = input
			return &dto.LoginResponse{Success: true, Token: "tok", User: dto.LoginUser{ID: 3, Email: input.Email}}, nil
		},
	}

	status, body, _ := do(t, newTestApp(svc), jsonRequest(http.MethodPost, "/login", `{"email":"a@b.c","password":"Secret#1"}`))
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Success)
	require.Equal(t, "tok", body.Token)
	require.Equal(t, dto.LoginRequest{Email: "a@b.c", Password: "Secret#1"}, got)
}

func TestVerifyEmailRoute(t *testing.T) {
	var gotToken string
	svc := &mockSchoolService{
		verifyFn: func(_ context.Context, token string) error {
			gotToken = token
			if token == "expired" {
				return helper.Upstream("verify email token", helper.ErrInvalidToken)
			}
			return nil
		},
	}
	app := newTestApp(svc)

	status, body, _ := do(t, app, httptest.NewRequest(http.MethodPost, "/verifyemail/abc.def.ghi", nil))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Email verified successfully", body.Message)
	require.Equal(t, "abc.def.ghi", gotToken)

	status, body, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/verifyemail/expired", nil))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "Server error", body.Message)
}

func TestRecoverAccountResponseIsUniform(t *testing.T) {
	svc := &mockSchoolService{
		recoverFn: func(context.Context, string) error { return nil },
	}
	app := newTestApp(svc)

	status, _, known := do(t, app, jsonRequest(http.MethodPost, "/recoveraccount", `{"email":"admin@school.example.com"}`))
	require.Equal(t, http.StatusOK, status)
	_, _, unknown := do(t, app, jsonRequest(http.MethodPost, "/recoveraccount", `{"email":"nobody@example.com"}`))
	_, _, empty := do(t, app, jsonRequest(http.MethodPost, "/recoveraccount", `{}`))

	require.Equal(t, known, unknown)
	require.Equal(t, known, empty)
	require.Contains(t, string(known), MsgRecoverySent)
}

func TestResetPasswordRoute(t *testing.T) {
	var gotToken string
	svc := &mockSchoolService{
		resetFn: func(_ context.Context, token string, input dto.ResetPasswordRequest) error {
			gotToken = token
			if input.Password != input.ConfirmPassword {
				return helper.NewValidationError("Passwords do not match")
			}
			return nil
		},
	}
	app := newTestApp(svc)

	status, body, _ := do(t, app, jsonRequest(http.MethodPost, "/resetpassword/tok", `{"password":"Newpass#2","confirmPassword":"Newpass#2"}`))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Password reset successfully", body.Message)
	require.Equal(t, "tok", gotToken)

	status, body, _ = do(t, app, jsonRequest(http.MethodPost, "/resetpassword/tok", `{"password":"Newpass#2","confirmPassword":"other"}`))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Passwords do not match", body.Message)
}

func TestUserRecordRoutes(t *testing.T) {
	svc := &mockSchoolService{
		getAllFn: func(context.Context) ([]dto.SchoolDetail, error) {
			return []dto.SchoolDetail{{SchoolResponse: dto.SchoolResponse{ID: 1}}, {SchoolResponse: dto.SchoolResponse{ID: 2}}}, nil
		},
		getFn: func(_ context.Context, id uint) (*dto.SchoolDetail, error) {
			if id != 1 {
				return nil, helper.NewNotFoundError(services.MsgUserNotFound)
			}
			return &dto.SchoolDetail{SchoolResponse: dto.SchoolResponse{ID: 1, Email: "a@b.c"}}, nil
		},
		deleteFn: func(_ context.Context, id uint) error {
			if id != 1 {
				return helper.NewNotFoundError(services.MsgUserNotFound)
			}
			return nil
		},
	}
	app := newTestApp(svc)

	status, body, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, status)
	var list []dto.SchoolDetail
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 2)

	status, body, raw := do(t, app, httptest.NewRequest(http.MethodGet, "/users/1", nil))
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, string(raw), "password")
	var one dto.SchoolDetail
	require.NoError(t, json.Unmarshal(body.Data, &one))
	require.Equal(t, "a@b.c", one.Email)

	status, body, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/users/9", nil))
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, services.MsgUserNotFound, body.Message)

	status, _, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/users/abc", nil))
	require.Equal(t, http.StatusBadRequest, status)

	status, body, _ = do(t, app, httptest.NewRequest(http.MethodDelete, "/users/1", nil))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "User deleted successfully", body.Message)

	status, _, _ = do(t, app, httptest.NewRequest(http.MethodDelete, "/users/9", nil))
	require.Equal(t, http.StatusNotFound, status)
}

func TestMeRequiresSessionToken(t *testing.T) {
	svc := &mockSchoolService{
		getFn: func(_ context.Context, id uint) (*dto.SchoolDetail, error) {
			return &dto.SchoolDetail{SchoolResponse: dto.SchoolResponse{ID: id, Email: "a@b.c"}}, nil
		},
	}
	app := newTestApp(svc)

	status, _, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, status)

	recovery, err := testAuth.GenerateToken(5, "a@b.c", helper.PurposeRecovery)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+recovery)
	status, _, _ = do(t, app, req)
	require.Equal(t, http.StatusUnauthorized, status)

	session, err := testAuth.GenerateToken(5, "a@b.c", helper.PurposeSession)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+session)
	status, body, _ := do(t, app, req)
	require.Equal(t, http.StatusOK, status)

	var me dto.SchoolDetail
	require.NoError(t, json.Unmarshal(body.Data, &me))
	require.Equal(t, uint(5), me.ID)
}
