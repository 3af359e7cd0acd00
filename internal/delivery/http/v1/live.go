package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func (h *handlerImpl) HandleLiveConnection(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		h.requestLogger(c).Debug().
			Msg("live connection without upgrade")
		c.Header("Upgrade", "websocket")
		abort(c, newAPIError(http.StatusUpgradeRequired, errUpgradeRequired.Error()))
		return
	}

	h.live.ServeWS(c.Writer, c.Request)
}
