package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/roles"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

// MockRepository implements auth.RepositoryAPI for testing
type MockRepository struct {
	passwordHash string
	userID       string
	user         *auth.User
	shouldFail   bool
	failError    error
}

func (m *MockRepository) GetPasswordForEmail(email string) (string, string, error) {
	if m.shouldFail {
		return "", "", m.failError
	}
	return m.passwordHash, m.userID, nil
}

func (m *MockRepository) GetUserByID(userID int64) (*auth.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.user, nil
}

var _ = Describe("Auth Service", func() {
	var (
		mockRepo *MockRepository
		tokenGen *auth.JWTTokenGenerator
		service  *auth.Service
	)

	accessSecret := "access-secret-that-is-long-enough-000"
	refreshSecret := "refresh-secret-that-is-long-enough-00"

	BeforeEach(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())

		mockRepo = &MockRepository{
			passwordHash: string(hash),
			userID:       "42",
			user: &auth.User{
				ID:       42,
				Email:    "amara.okafor@commandos.health",
				Role:     roles.RoleCEO,
				IsActive: true,
			},
		}
		tokenGen = auth.NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 7*24*time.Hour)
		service = auth.NewService(mockRepo, tokenGen, bcrypt.MinCost)
	})

	Describe("Authenticate", func() {
		It("should return both tokens for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "amara.okafor@commandos.health",
				Password: "correct horse",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())
		})

		It("should reject a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "amara.okafor@commandos.health",
				Password: "wrong",
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should mask an unknown account as invalid credentials", func() {
			mockRepo.shouldFail = true
			mockRepo.failError = errors.New("user not found")

			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "nobody@commandos.health",
				Password: "whatever",
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})
	})

	Describe("ValidateAccessToken", func() {
		It("should round-trip claims through a generated token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "amara.okafor@commandos.health",
				Password: "correct horse",
			})
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("42"))
			Expect(claims.Email).To(Equal("amara.okafor@commandos.health"))
		})

		It("should reject garbage", func() {
			_, err := service.ValidateAccessToken("not.a.token")
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})

		It("should report an expired token", func() {
			expiredGen := &auth.JWTTokenGenerator{
				AccessTokenSecret:  []byte(accessSecret),
				RefreshTokenSecret: []byte(refreshSecret),
				AccessTokenTTL:     -time.Hour,
				RefreshTokenTTL:    -time.Hour,
			}
			token, err := expiredGen.GenerateAccessToken("42", "x@commandos.health")
			Expect(err).NotTo(HaveOccurred())

			_, err = tokenGen.ValidateToken(token)
			Expect(err).To(Equal(auth.ErrTokenExpired))
		})
	})

	Describe("RefreshTokens", func() {
		It("should mint a fresh pair from a valid refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "amara.okafor@commandos.health",
				Password: "correct horse",
			})
			Expect(err).NotTo(HaveOccurred())

			renewed, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(renewed.AccessToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(renewed.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("42"))
		})
	})

	Describe("GetUser", func() {
		It("should return the account row", func() {
			user, err := service.GetUser(42)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Role).To(Equal(roles.RoleCEO))
		})

		It("should refuse a deactivated account", func() {
			mockRepo.user.IsActive = false
			_, err := service.GetUser(42)
			Expect(err).To(Equal(auth.ErrUserInactive))
		})
	})
})
