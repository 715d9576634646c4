package repository

import (
	"Homeroom/internal/model"
	"context"

	"gorm.io/gorm"
)

type StudentRepo interface {
	GetStudentByID(ctx context.Context, id string) (*model.Student, error)
	// GetGuardianIDs 获取学生的全部监护人用户 ID，事件扇出的收件人来源
	GetGuardianIDs(ctx context.Context, studentID string) ([]string, error)
}

type studentRepoImpl struct {
	db *gorm.DB
}

func NewStudentRepo(db *gorm.DB) StudentRepo {
	return &studentRepoImpl{db: db}
}

// GetStudentByID 根据 ID 获取学生
func (s *studentRepoImpl) GetStudentByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).First(&student, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// GetGuardianIDs 查询监护人关联
func (s *studentRepoImpl) GetGuardianIDs(ctx context.Context, studentID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.GuardianLink{}).
		Where("student_id = ?", studentID).
		Pluck("guardian_id", &ids).Error
	return ids, err
}
