package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SundayYogurt/school_service/internal/domain"
	"github.com/SundayYogurt/school_service/internal/dto"
	"github.com/SundayYogurt/school_service/internal/helper"
	"github.com/SundayYogurt/school_service/internal/interfaces"
	"github.com/SundayYogurt/school_service/internal/repository"
	"github.com/SundayYogurt/school_service/pkg/logger"
	"github.com/SundayYogurt/school_service/pkg/metrics"
	"github.com/SundayYogurt/school_service/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgUserNotFound       = "User not found"
	MsgInvalidCredentials = "Invalid credentials"
	MsgEmailNotVerified   = "Email not verified. Verification email sent."
	MsgEmailTaken         = "Email already registered"
	MsgInvalidLink        = "Invalid or expired link"
	MsgAlreadyVerified    = "Email already verified"

	subjectVerify = "Verify your email"
	subjectReset  = "Reset your password"

	defaultImageFolder   = "school_images"
	defaultImageMaxWidth = 1024
	imageQuality         = 85
)

type SchoolService interface {
	// Auth
	Register(ctx context.Context, input dto.RegisterRequest, image []byte) (*dto.SchoolResponse, error)
	Login(ctx context.Context, input dto.LoginRequest) (*dto.LoginResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	RecoverAccount(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, input dto.ResetPasswordRequest) error

	// Records
	GetSchool(ctx context.Context, id uint) (*dto.SchoolDetail, error)
	GetAllSchools(ctx context.Context) ([]dto.SchoolDetail, error)
	DeleteSchool(ctx context.Context, id uint) error
}

// Options carries the process configuration the service needs.
type Options struct {
	FrontendURL   string
	ImageFolder   string
	ImageMaxWidth int
}

type schoolService struct {
	repo     repository.SchoolRepository
	auth     helper.Auth
	uploader interfaces.Uploader
	notifier interfaces.Notifier
	opts     Options
	log      *zap.Logger
}

func NewSchoolService(
	repo repository.SchoolRepository,
	auth helper.Auth,
	uploader interfaces.Uploader,
	notifier interfaces.Notifier,
	opts Options,
) SchoolService {
	if opts.ImageFolder == "" {
		opts.ImageFolder = defaultImageFolder
	}
	if opts.ImageMaxWidth <= 0 {
		opts.ImageMaxWidth = defaultImageMaxWidth
	}
	return &schoolService{
		repo:     repo,
		auth:     auth,
		uploader: uploader,
		notifier: notifier,
		opts:     opts,
		log:      logger.WithModule("school"),
	}
}

// AUTH
func (s *schoolService) Register(ctx context.Context, input dto.RegisterRequest, image []byte) (*dto.SchoolResponse, error) {
	if err := helper.ValidateStruct(input); err != nil {
		metrics.Registrations.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if input.Password != input.ConfirmPassword {
		metrics.Registrations.WithLabelValues("rejected").Inc()
		return nil, helper.NewValidationError("Passwords do not match!")
	}

	var imageURL *string
	if len(image) > 0 {
		url, err := s.uploadImage(ctx, image)
		if err != nil {
			return nil, s.registrationFailed(err)
		}
		imageURL = &url
	}

	// fast path only; the unique index on email is what actually guards duplicates
	_, err := s.repo.FindSchoolByEmail(ctx, input.Email)
	switch {
	case err == nil:
		metrics.Registrations.WithLabelValues("rejected").Inc()
		return nil, helper.NewConflictError(MsgEmailTaken)
	case !errors.Is(err, repository.ErrSchoolNotFound):
		return nil, s.registrationFailed(helper.Upstream("find school by email", err))
	}

	hashed, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return nil, s.registrationFailed(helper.Upstream("hash password", err))
	}

	school, err := s.repo.CreateSchool(ctx, &domain.School{
		Email:       input.Email,
		Password:    hashed,
		Name:        input.Name,
		Image:       imageURL,
		Description: input.Description,
		Phone:       input.Phone,
		Address:     input.Address,
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		metrics.Registrations.WithLabelValues("rejected").Inc()
		return nil, helper.NewConflictError(MsgEmailTaken)
	}
	if err != nil {
		return nil, s.registrationFailed(helper.Upstream("create school", err))
	}

	s.log.Info("school registered", zap.Uint("school_id", school.ID))
	metrics.Registrations.WithLabelValues("created").Inc()

	// the row stays if this fails; the school can trigger a new link by logging in
	if err := s.sendVerification(ctx, school, templateWelcome); err != nil {
		return nil, err
	}

	resp := dto.NewSchoolResponse(school)
	return &resp, nil
}

func (s *schoolService) Login(ctx context.Context, input dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := helper.ValidateStruct(input); err != nil {
		return nil, err
	}

	school, err := s.repo.FindSchoolByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrSchoolNotFound) {
		metrics.LoginAttempts.WithLabelValues("not_found").Inc()
		return nil, helper.NewNotFoundError(MsgUserNotFound)
	}
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, helper.Upstream("find school by email", err)
	}

	// a wrong password must never trigger a verification mail
	if err := s.auth.VerifyPassword(input.Password, school.Password); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, helper.NewUnauthorizedError(MsgInvalidCredentials)
	}

	if !school.Verified {
		metrics.LoginAttempts.WithLabelValues("unverified").Inc()
		if err := s.sendVerification(ctx, school, templateVerifyReminder); err != nil {
			return nil, err
		}
		return nil, helper.NewNotVerifiedError(MsgEmailNotVerified)
	}

	token, err := s.auth.GenerateToken(school.ID, school.Email, helper.PurposeSession)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, helper.Upstream("generate session token", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return &dto.LoginResponse{
		Success: true,
		Token:   token,
		User: dto.LoginUser{
			ID:    school.ID,
			Email: school.Email,
			Name:  school.Name,
		},
	}, nil
}

// VerifyEmail looks the school up by the email claim of a verify_email token.
func (s *schoolService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.auth.VerifyToken(token, helper.PurposeVerifyEmail)
	if err != nil {
		return helper.Upstream("verify email token", err)
	}

	school, err := s.repo.FindSchoolByEmail(ctx, claims.Email)
	if errors.Is(err, repository.ErrSchoolNotFound) {
		return helper.NewValidationError(MsgInvalidLink)
	}
	if err != nil {
		return helper.Upstream("find school by email", err)
	}
	if school.Verified {
		return helper.NewValidationError(MsgAlreadyVerified)
	}

	if err := s.repo.MarkVerified(ctx, school.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyVerified) {
			return helper.NewValidationError(MsgAlreadyVerified)
		}
		return helper.Upstream("mark school verified", err)
	}

	s.log.Info("school verified", zap.Uint("school_id", school.ID))
	return nil
}

// RecoverAccount mails a reset link when the email is known. Unknown emails
// succeed silently so callers cannot probe for accounts.
func (s *schoolService) RecoverAccount(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}

	school, err := s.repo.FindSchoolByEmail(ctx, email)
	if errors.Is(err, repository.ErrSchoolNotFound) {
		return nil
	}
	if err != nil {
		return helper.Upstream("find school by email", err)
	}

	token, err := s.auth.GenerateToken(school.ID, school.Email, helper.PurposeRecovery)
	if err != nil {
		return helper.Upstream("generate recovery token", err)
	}

	link := fmt.Sprintf("%s/resetpassword/%s", s.opts.FrontendURL, token)
	return s.mail(ctx, school, templateResetPassword, subjectReset, link)
}

// ResetPassword rewrites the password of the school named by the token id.
func (s *schoolService) ResetPassword(ctx context.Context, token string, input dto.ResetPasswordRequest) error {
	if err := helper.ValidateStruct(input); err != nil {
		return err
	}
	if input.Password != input.ConfirmPassword {
		return helper.NewValidationError("Passwords do not match")
	}

	claims, err := s.auth.VerifyToken(token, helper.PurposeRecovery)
	if err != nil {
		return helper.Upstream("verify recovery token", err)
	}

	hashed, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return helper.Upstream("hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, claims.SchoolID, hashed); err != nil {
		return helper.Upstream("update password", err)
	}

	s.log.Info("password reset", zap.Uint("school_id", claims.SchoolID))
	return nil
}

// RECORDS
func (s *schoolService) GetSchool(ctx context.Context, id uint) (*dto.SchoolDetail, error) {
	school, err := s.repo.FindSchoolById(ctx, id)
	if errors.Is(err, repository.ErrSchoolNotFound) {
		return nil, helper.NewNotFoundError(MsgUserNotFound)
	}
	if err != nil {
		return nil, helper.Upstream("find school by id", err)
	}
	detail := dto.NewSchoolDetail(school)
	return &detail, nil
}

func (s *schoolService) GetAllSchools(ctx context.Context) ([]dto.SchoolDetail, error) {
	schools, err := s.repo.FindAllSchools(ctx)
	if err != nil {
		return nil, helper.Upstream("find all schools", err)
	}
	out := make([]dto.SchoolDetail, 0, len(schools))
	for i := range schools {
		out = append(out, dto.NewSchoolDetail(&schools[i]))
	}
	return out, nil
}

func (s *schoolService) DeleteSchool(ctx context.Context, id uint) error {
	err := s.repo.DeleteSchool(ctx, id)
	if errors.Is(err, repository.ErrSchoolNotFound) {
		return helper.NewNotFoundError(MsgUserNotFound)
	}
	if err != nil {
		return helper.Upstream("delete school", err)
	}
	s.log.Info("school deleted", zap.Uint("school_id", id))
	return nil
}

func (s *schoolService) uploadImage(ctx context.Context, image []byte) (string, error) {
	normalized, err := utils.NormalizeToJPG(image, s.opts.ImageMaxWidth, imageQuality)
	if errors.Is(err, utils.ErrUnsupportedImage) {
		return "", helper.NewValidationError("Image must be a jpeg, png or webp file")
	}
	if err != nil {
		return "", helper.Upstream("normalize image", err)
	}

	url, err := s.uploader.UploadBytes(ctx, s.opts.ImageFolder, uuid.NewString(), normalized)
	if err != nil {
		return "", helper.Upstream("upload image", err)
	}
	return url, nil
}

func (s *schoolService) sendVerification(ctx context.Context, school *domain.School, tmpl string) error {
	token, err := s.auth.GenerateToken(school.ID, school.Email, helper.PurposeVerifyEmail)
	if err != nil {
		return helper.Upstream("generate verification token", err)
	}
	link := fmt.Sprintf("%s/verifyemail/%s", s.opts.FrontendURL, token)
	return s.mail(ctx, school, tmpl, subjectVerify, link)
}

func (s *schoolService) mail(ctx context.Context, school *domain.School, tmpl, subject, link string) error {
	html, err := renderMail(tmpl, mailData{Name: school.Name, Link: link})
	if err != nil {
		return helper.Upstream("render "+tmpl, err)
	}
	if err := s.notifier.SendMail(ctx, school.Email, subject, html); err != nil {
		metrics.MailsSent.WithLabelValues(tmpl, "failed").Inc()
		return helper.Upstream("send "+tmpl, err)
	}
	metrics.MailsSent.WithLabelValues(tmpl, "sent").Inc()
	return nil
}

func (s *schoolService) registrationFailed(err error) error {
	var appErr *helper.AppError
	if errors.As(err, &appErr) && appErr.Kind == helper.KindValidation {
		metrics.Registrations.WithLabelValues("rejected").Inc()
	} else {
		metrics.Registrations.WithLabelValues("error").Inc()
	}
	return err
}
