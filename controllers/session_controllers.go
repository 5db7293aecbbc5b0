package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/food-storefront/hub"
	"github.com/yeremiapane/food-storefront/middlewares"
	"github.com/yeremiapane/food-storefront/services"
	"github.com/yeremiapane/food-storefront/utils"
)

type SessionController struct {
	Registry *services.SessionRegistry
	Tokens   *utils.SessionTokens
	Hub      *hub.SessionHub
	upgrader websocket.Upgrader
}

func NewSessionController(registry *services.SessionRegistry, tokens *utils.SessionTokens, h *hub.SessionHub, allowedOrigins []string) *SessionController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &SessionController{
		Registry: registry,
		Tokens:   tokens,
		Hub:      h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// CreateSession starts an anonymous storefront session.
func (sc *SessionController) CreateSession(c *gin.Context) {
	key := sc.Registry.NewSessionKey()
	token, err := sc.Tokens.Generate(key)
	if err != nil {
		utils.ErrorLogger.Errorf("Failed to sign session token: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Session created", gin.H{
		"token":       token,
		"session_key": key,
	})
}

// Events upgrades to a websocket that receives the session's storefront events.
func (sc *SessionController) Events(c *gin.Context) {
	key := middlewares.SessionKey(c)

	ws, err := sc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithField("session", key).Errorf("Websocket upgrade failed: %v", err)
		return
	}
	sc.Hub.Register(ws, key)

	// reads only detect the disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	sc.Hub.Unregister(ws)
}
