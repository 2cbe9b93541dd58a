package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/YongHui-X/ecoplate/internal/domain"
	"github.com/YongHui-X/ecoplate/internal/security"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
//
// The bearer credential rides in the "token" query parameter because the
// browser WebSocket API cannot set custom headers on the handshake. Missing
// or invalid tokens are rejected with 401 before the upgrade; a connection is
// only admitted to the hub with a verified user id bound for its lifetime.
//
// The only recognized inbound frame is {"type":"ping"}; every other frame is
// logged and dropped without closing the connection.
func MakeHandler(
	hub *Hub,
	disp *Dispatcher,
	tokens *security.TokenService,
	users domain.UserRepository,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := tokens.ParseUserID(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		user, err := users.GetByID(r.Context(), userID)
		if err != nil || user == nil || !user.IsActive {
			http.Error(w, "user not found or inactive", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := NewClient(user.ID, conn)
		hub.Add(client)
		defer hub.Remove(client)

		disp.Welcome(client)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				log.Printf("ws: malformed frame from user %d: %v", user.ID, err)
				continue
			}

			switch frame.Type {
			case "ping":
				disp.Pong(client)
			default:
				log.Printf("ws: ignoring frame type %q from user %d", frame.Type, user.ID)
			}
		}
	}
}
