package database

import (
	"fmt"
	"log"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.QuizQuestion{},
		&model.Enrollment{},
		&model.LessonProgress{},
		&model.QuizAnswer{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// Seed a starter catalog so a fresh install is not an empty page.
	var count int64
	db.Model(&model.Course{}).Count(&count)
	if count == 0 {
		defaultCourses := []model.Course{
			{
				Title:       "Introduction to JavaScript",
				Description: "Learn the basics of JS programming.",
				Duration:    "6 hours",
				IsFeatured:  true,
			},
			{
				Title:       "React Fundamentals",
				Description: "Master React for modern web apps.",
				Duration:    "8 hours",
			},
		}
		for _, c := range defaultCourses {
			db.Create(&c)
		}
	}

	return db, nil
}
