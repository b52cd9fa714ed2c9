package service

import (
	"context"
	"errors"
	"mime/multipart"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"

	"gorm.io/gorm"
)

// ProfileNotifier pushes a profile-changed event to the user's open sessions.
type ProfileNotifier interface {
	PublishProfile(userID uint)
}

// PresenceChecker reports whether a user has a live realtime connection on
// any instance.
type PresenceChecker interface {
	IsOnline(userID uint) bool
}

type UserService struct {
	db       *gorm.DB
	UserRepo *repository.UserRepository
	Storage  *StorageService
	Notifier ProfileNotifier
	Presence PresenceChecker
}

func NewUserService(db *gorm.DB, userRepo *repository.UserRepository, storage *StorageService, notifier ProfileNotifier, presence PresenceChecker) *UserService {
	return &UserService{
		db:       db,
		UserRepo: userRepo,
		Storage:  storage,
		Notifier: notifier,
		Presence: presence,
	}
}

type UpdateProfileInput struct {
	Name string `json:"name" binding:"required"`
	Bio  string `json:"bio"`
}

func (s *UserService) UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	user.Name = input.Name
	user.Bio = input.Bio
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.PublishProfile(userID)
	}
	return user, nil
}

func (s *UserService) UploadAvatar(ctx context.Context, userID uint, header *multipart.FileHeader) (string, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrUserNotFound
		}
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{"image/"})
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return "", err
	}

	url, err := s.Storage.Upload(ctx, ObjectName("avatars", header.Filename), file, header.Size, mimeType)
	if err != nil {
		return "", err
	}

	user.Avatar = url
	if err := s.UserRepo.Update(user); err != nil {
		return "", err
	}

	if s.Notifier != nil {
		s.Notifier.PublishProfile(userID)
	}
	return url, nil
}

// UserView is a user row for the admin list, annotated with live presence.
type UserView struct {
	model.User
	Online bool `json:"online"`
}

func (s *UserService) ListUsers(page, limit int) ([]UserView, int64, error) {
	users, total, err := s.UserRepo.List(page, limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		view := UserView{User: u}
		if s.Presence != nil {
			view.Online = s.Presence.IsOnline(u.ID)
		}
		views = append(views, view)
	}
	return views, total, nil
}

// DeleteUser removes the account together with every learning record tied to
// it. One transaction so a partial failure never orphans progress rows.
func (s *UserService) DeleteUser(userID uint) error {
	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.QuizAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.LessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
}
