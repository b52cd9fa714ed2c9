package repository

import (
	"time"

	"learnsphere_backend/internal/model"

	"gorm.io/gorm"
)

type LessonProgressRepository struct {
	DB *gorm.DB
}

func NewLessonProgressRepository(db *gorm.DB) *LessonProgressRepository {
	return &LessonProgressRepository{DB: db}
}

// Upsert marks the (user, lesson) pair completed. Re-marking an already
// completed lesson rewrites the same row, so the effect is idempotent.
func (r *LessonProgressRepository) Upsert(userID, lessonID uint, completed bool) error {
	tx := r.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var existing model.LessonProgress
	err := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&existing).Error

	now := time.Now()

	if err != nil {
		mark := &model.LessonProgress{
			UserID:      userID,
			LessonID:    lessonID,
			Completed:   completed,
			CompletedAt: &now,
		}
		err = tx.Create(mark).Error
	} else {
		existing.Completed = completed
		if completed {
			existing.CompletedAt = &now
		} else {
			existing.CompletedAt = nil
		}
		err = tx.Save(&existing).Error
	}

	if err != nil {
		tx.Rollback()
		return err
	}

	tx.Commit()
	return nil
}

func (r *LessonProgressRepository) IsCompleted(userID, lessonID uint) (bool, error) {
	var mark model.LessonProgress
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&mark).Error
	if err != nil {
		// No row means not completed.
		return false, nil
	}
	return mark.Completed, nil
}

// CountCompleted counts this learner's completed marks among the given lessons.
func (r *LessonProgressRepository) CountCompleted(userID uint, lessonIDs []uint) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND completed = ? AND lesson_id IN ?", userID, true, lessonIDs).
		Count(&count).Error
	return count, err
}

// CompletionMap returns lessonID -> completed for the given lessons.
func (r *LessonProgressRepository) CompletionMap(userID uint, lessonIDs []uint) (map[uint]bool, error) {
	statusMap := make(map[uint]bool)
	if len(lessonIDs) == 0 {
		return statusMap, nil
	}

	var marks []model.LessonProgress
	err := r.DB.Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).Find(&marks).Error
	if err != nil {
		return nil, err
	}

	for _, mark := range marks {
		statusMap[mark.LessonID] = mark.Completed
	}

	return statusMap, nil
}
