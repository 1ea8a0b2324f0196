package fakeapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"liyu1981.xyz/platform-dashboard/pkg/common"
)

type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex"`
	PasswordHash []byte
	CreatedAt    time.Time
}

type APIToken struct {
	Token     string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	CreatedAt time.Time
}

func authLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameFakeAPI,
		zap.String(common.LoggerFieldCategory, common.LoggerCategorySession),
	)
}

func (s *Store) createUser(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := User{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := s.Db.Conn.Create(&user).Error; err != nil {
		return fmt.Errorf("create user %s: %w", email, err)
	}

	authLogger().Info("Created user", zap.String("email", email))
	return nil
}

func (s *Store) login(email, password string) (string, error) {
	var user User
	err := s.Db.Conn.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		authLogger().Info("Rejected password", zap.String("email", email))
		return "", ErrInvalidCredentials
	}

	token := APIToken{Token: uuid.NewString(), UserID: user.ID}
	if err := s.Db.Conn.Create(&token).Error; err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token.Token, nil
}

func (s *Store) validToken(token string) (bool, error) {
	var count int64
	if err := s.Db.Conn.Model(&APIToken{}).Where("token = ?", token).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) userExists(email string) (bool, error) {
	var count int64
	if err := s.Db.Conn.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type IAuthImpl struct {
	store *Store
}

func (ia *IAuthImpl) CreateUser(email, password string) error {
	return ia.store.createUser(email, password)
}

func (ia *IAuthImpl) Login(email, password string) (string, error) {
	return ia.store.login(email, password)
}

func (ia *IAuthImpl) ValidToken(token string) (bool, error) {
	return ia.store.validToken(token)
}

func (s *Store) GetIAuth() IAuth {
	return &IAuthImpl{store: s}
}
