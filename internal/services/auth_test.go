package services_test

import (
	"testing"

	"task-collab/backend/internal/models"
	"task-collab/backend/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	auth     services.AuthService
	register services.RegisterService
	user     *models.User
}

func (suite *AuthServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(&models.User{}, &models.Token{}))

	suite.db = db
	suite.auth = services.NewAuthService()
	suite.register = services.NewRegisterService()

	user, err := suite.register.RegisterUser(db, services.RegistrationRequest{
		Username: "alex",
		Email:    "alex@example.com",
		Password: "Sup3rSecret",
	})
	suite.Require().NoError(err)
	suite.user = user
}

func (suite *AuthServiceTestSuite) TestRegisterHashesPassword() {
	suite.NotEqual("Sup3rSecret", suite.user.Password)
	suite.True(services.VerifyPassword(suite.user.Password, "Sup3rSecret"))
	suite.False(services.VerifyPassword(suite.user.Password, "wrong"))
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsDuplicates() {
	_, err := suite.register.RegisterUser(suite.db, services.RegistrationRequest{
		Username: "other",
		Email:    "alex@example.com",
		Password: "Sup3rSecret",
	})
	suite.Require().Error(err)
	suite.Contains(err.Error(), "email already exists")

	_, err = suite.register.RegisterUser(suite.db, services.RegistrationRequest{
		Username: "alex",
		Email:    "new@example.com",
		Password: "Sup3rSecret",
	})
	suite.Require().Error(err)
	suite.Contains(err.Error(), "username already exists")
}

func (suite *AuthServiceTestSuite) TestLoginUser() {
	user, err := suite.auth.LoginUser(suite.db, "alex", "Sup3rSecret")
	suite.Require().NoError(err)
	suite.Equal(suite.user.ID, user.ID)

	_, err = suite.auth.LoginUser(suite.db, "alex", "wrong")
	suite.Error(err)

	_, err = suite.auth.LoginUser(suite.db, "nobody", "Sup3rSecret")
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestGenerateTokenClaims() {
	suite.user.IsStaff = true
	suite.Require().NoError(suite.db.Save(suite.user).Error)

	accessToken, refreshToken, err := suite.auth.GenerateToken(suite.db, suite.user)
	suite.Require().NoError(err)
	suite.NotEmpty(refreshToken)

	parsed, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("default_secret"), nil
	})
	suite.Require().NoError(err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	suite.Require().True(ok)
	suite.Equal(suite.user.ID.String(), claims["user_id"])
	suite.Equal(true, claims["staff"])
}

func (suite *AuthServiceTestSuite) TestRefreshTokenRotates() {
	_, refreshToken, err := suite.auth.GenerateToken(suite.db, suite.user)
	suite.Require().NoError(err)

	accessToken, newRefreshToken, expiresIn, err := suite.auth.RefreshToken(suite.db, refreshToken)
	suite.Require().NoError(err)
	suite.NotEmpty(accessToken)
	suite.NotEqual(refreshToken, newRefreshToken)
	suite.Positive(expiresIn)

	// the old refresh token is single-use
	_, _, _, err = suite.auth.RefreshToken(suite.db, refreshToken)
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestRevokeToken() {
	_, refreshToken, err := suite.auth.GenerateToken(suite.db, suite.user)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.auth.RevokeToken(suite.db, refreshToken))

	_, _, _, err = suite.auth.RefreshToken(suite.db, refreshToken)
	suite.Error(err)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
