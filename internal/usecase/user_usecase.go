package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medlink/teleconsult/internal/domain/models"
	"github.com/medlink/teleconsult/internal/infra/adapters/postgres/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenTTL = 72 * time.Hour

type UserUsecase interface {
	Register(username, password string, role models.Role) (*models.User, error)
	Login(username, password string) (token string, err error)
	GetByID(id uuid.UUID) (*models.User, error)
	Doctors() ([]*models.User, error)
}

type userUsecase struct {
	jwtSecret []byte
	userRepo  repository.UserRepository
}

func NewUserUsecase(jwtSecret []byte, userRepo repository.UserRepository) UserUsecase {
	return &userUsecase{
		jwtSecret: jwtSecret,
		userRepo:  userRepo,
	}
}

func (u *userUsecase) Register(username, password string, role models.Role) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if role != models.RoleDoctor {
		role = models.RolePatient
	}

	user := models.NewUser()
	user.Username = username
	user.Password = string(hashedPassword)
	user.Role = role

	if err := u.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user.Password = ""

	return user, nil
}

func (u *userUsecase) Login(username, password string) (string, error) {
	user, err := u.userRepo.GetUserByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Subject:   user.ID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	ss, err := token.SignedString(u.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return ss, nil
}

func (u *userUsecase) GetByID(id uuid.UUID) (*models.User, error) {
	return u.userRepo.GetUserByID(id)
}

func (u *userUsecase) Doctors() ([]*models.User, error) {
	return u.userRepo.GetDoctors()
}
