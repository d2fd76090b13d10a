package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pantrytrack/services"
	"pantrytrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const liveSearchLimit = 20

type RealtimeController struct {
	RT       *services.RealtimeHub
	Items    *services.ItemService
	Debounce time.Duration
}

func NewRealtimeController(rt *services.RealtimeHub, items *services.ItemService) *RealtimeController {
	return &RealtimeController{RT: rt, Items: items, Debounce: utils.DefaultDebounce}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // CORS is enforced on the HTTP routes
}

// GET /ws/alerts streams alert events for the caller.
func (rc *RealtimeController) AlertsWS(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := services.NewWSClient(uid, conn)
	rc.RT.Register(cl)

	done := make(chan struct{})
	defer close(done)

	// ping to keep connections alive through proxies
	go func() {
		t := time.NewTicker(25 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// read loop ends on client close/error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			rc.RT.Unregister(cl)
			return
		}
	}
}

type searchMsg struct {
	Query string `json:"query"`
}

// GET /ws/search answers {"query": "..."} messages with item search results
// once the client stops typing for the debounce period.
func (rc *RealtimeController) SearchWS(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := services.NewWSClient(uid, conn)
	ctx, cancel := context.WithCancel(context.Background())

	deb := utils.NewDebouncer(rc.Debounce, func(q string) {
		res, err := rc.Items.Search(ctx, uid, q, services.ItemFilter{Limit: liveSearchLimit})
		if err != nil {
			_ = cl.WriteJSON(gin.H{"query": q, "error": "search failed"})
			return
		}
		_ = cl.WriteJSON(res)
	})
	defer func() {
		deb.Stop()
		cancel()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg searchMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = cl.WriteJSON(gin.H{"error": `expected {"query": "..."}`})
			continue
		}
		deb.Trigger(msg.Query)
	}
}
