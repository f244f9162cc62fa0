package repository

import (
	"context"
	"errors"

	"github.com/SundayYogurt/school_service/internal/domain"
	"github.com/SundayYogurt/school_service/internal/helper"
	"gorm.io/gorm"
)

var (
	ErrSchoolNotFound  = errors.New("school not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrAlreadyVerified = errors.New("school already verified")
)

type SchoolRepository interface {
	CreateSchool(ctx context.Context, school *domain.School) (*domain.School, error)
	FindSchoolByEmail(ctx context.Context, email string) (*domain.School, error)
	FindSchoolById(ctx context.Context, id uint) (*domain.School, error)
	FindAllSchools(ctx context.Context) ([]domain.School, error)
	MarkVerified(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	DeleteSchool(ctx context.Context, id uint) error
}

type schoolRepository struct {
	db *gorm.DB
}

func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

func (r *schoolRepository) CreateSchool(ctx context.Context, school *domain.School) (*domain.School, error) {
	if school == nil {
		return nil, errors.New("nil school")
	}

	if err := r.db.WithContext(ctx).Create(school).Error; err != nil {
		if helper.IsDuplicateEmail(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return school, nil
}

func (r *schoolRepository) FindSchoolByEmail(ctx context.Context, email string) (*domain.School, error) {
	school := &domain.School{}
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(school).Error; err != nil {
		return nil, notFound(err)
	}
	return school, nil
}

func (r *schoolRepository) FindSchoolById(ctx context.Context, id uint) (*domain.School, error) {
	school := &domain.School{}
	if err := r.db.WithContext(ctx).First(school, id).Error; err != nil {
		return nil, notFound(err)
	}
	return school, nil
}

func (r *schoolRepository) FindAllSchools(ctx context.Context) ([]domain.School, error) {
	var schools []domain.School
	if err := r.db.WithContext(ctx).Order("id").Find(&schools).Error; err != nil {
		return nil, err
	}
	return schools, nil
}

// MarkVerified only flips rows that are still unverified, so two concurrent
// verifications cannot both succeed.
func (r *schoolRepository) MarkVerified(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&domain.School{}).
		Where("id = ? AND verified = ?", id, false).
		Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyVerified
	}
	return nil
}

func (r *schoolRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).
		Model(&domain.School{}).
		Where("id = ?", id).
		Update("password", hash).Error
}

func (r *schoolRepository) DeleteSchool(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.School{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSchoolNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSchoolNotFound
	}
	return err
}
