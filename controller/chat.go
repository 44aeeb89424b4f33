package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/HasnaMouflih/chatbot-educatif-intelligent/service"
)

type ChatController struct {
	chat   *service.ChatService
	logger *logrus.Logger
}

func NewChatController(chat *service.ChatService, logger *logrus.Logger) *ChatController {
	return &ChatController{chat: chat, logger: logger}
}

// Ask answers a question inside one conversation and logs both sides of
// the exchange.
func (ctrl *ChatController) Ask(c *gin.Context) {
	var input struct {
		ChatID   string `json:"chat_id" binding:"required"`
		Question string `json:"question" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		ctrl.logger.Warnf("[%s] invalid ask input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	username := c.GetString("username")
	answer, err := ctrl.chat.Ask(c.Request.Context(), username, input.ChatID, input.Question)
	if err != nil {
		ctrl.logger.Warnf("[%s] ask failed for %s: %s", c.GetString("requestId"), username, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reponse": answer})
}

// ChatIDs lists the caller's conversations, most recently active first.
func (ctrl *ChatController) ChatIDs(c *gin.Context) {
	username := c.GetString("username")
	chatIDs, err := ctrl.chat.ChatIDs(c.Request.Context(), username)
	if err != nil {
		ctrl.logger.Warnf("[%s] chat id listing failed for %s: %s", c.GetString("requestId"), username, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}
	if chatIDs == nil {
		chatIDs = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"chat_ids": chatIDs})
}

// History returns one conversation. An empty match is a 404 so callers
// cannot tell a foreign chat from a missing one.
func (ctrl *ChatController) History(c *gin.Context) {
	username := c.GetString("username")
	chatID := c.Param("chat_id")

	history, err := ctrl.chat.History(c.Request.Context(), username, chatID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "history not found"})
			return
		}
		ctrl.logger.Warnf("[%s] history fetch failed for %s: %s", c.GetString("requestId"), username, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// DeleteHistory removes one conversation; deleting nothing still succeeds.
func (ctrl *ChatController) DeleteHistory(c *gin.Context) {
	username := c.GetString("username")
	chatID := c.Param("chat_id")

	deleted, err := ctrl.chat.DeleteHistory(c.Request.Context(), username, chatID)
	if err != nil {
		ctrl.logger.Warnf("[%s] history deletion failed for %s: %s", c.GetString("requestId"), username, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}

	ctrl.logger.Infof("[%s] deleted %d messages of chat %s for %s", c.GetString("requestId"), deleted, chatID, username)
	c.Status(http.StatusNoContent)
}
