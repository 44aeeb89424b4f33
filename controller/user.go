package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/HasnaMouflih/chatbot-educatif-intelligent/service"
)

type UserController struct {
	users  *service.UserService
	logger *logrus.Logger
}

func NewUserController(users *service.UserService, logger *logrus.Logger) *UserController {
	return &UserController{users: users, logger: logger}
}

// Signup creates an account and returns a token right away, so the client
// does not need a follow-up login.
func (ctrl *UserController) Signup(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		ctrl.logger.Warnf("[%s] invalid signup input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	token, err := ctrl.users.Signup(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already registered"})
		case errors.Is(err, service.ErrStoreUnavailable):
			ctrl.logger.Warnf("[%s] signup failed for %s: store unavailable", c.GetString("requestId"), input.Username)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		default:
			ctrl.logger.Warnf("[%s] signup failed for %s: %s", c.GetString("requestId"), input.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		}
		return
	}

	ctrl.logger.Infof("[%s] user %s registered", c.GetString("requestId"), input.Username)
	c.JSON(http.StatusCreated, token)
}

// Login accepts the form-encoded credential pair and returns a fresh token.
func (ctrl *UserController) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := ctrl.users.Login(c.Request.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			ctrl.logger.Warnf("[%s] login rejected for %s", c.GetString("requestId"), username)
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect username or password"})
		case errors.Is(err, service.ErrStoreUnavailable):
			ctrl.logger.Warnf("[%s] login failed for %s: store unavailable", c.GetString("requestId"), username)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		default:
			ctrl.logger.Warnf("[%s] login failed for %s: %s", c.GetString("requestId"), username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		}
		return
	}

	ctrl.logger.Infof("[%s] user %s logged in", c.GetString("requestId"), username)
	c.JSON(http.StatusOK, token)
}
