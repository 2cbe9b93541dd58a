package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/YongHui-X/ecoplate/internal/service"
)

type sendMessageRequest struct {
	ConversationID *int64 `json:"conversationId" validate:"omitempty,gt=0"`
	ListingID      *int64 `json:"listingId" validate:"omitempty,gt=0"`
	MessageText    string `json:"messageText" validate:"required,max=2000"`
}

// @Summary      Send a message
// @Description  Send a message to an existing conversation or start one against a listing
// @Tags         messages
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body sendMessageRequest true "Message input"
// @Success      201  {object}  domain.Message
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /messages [post]
func handleSendMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if fields := validateStruct(req); fields != nil {
			writeFieldErrors(w, fields)
			return
		}
		if (req.ConversationID == nil) == (req.ListingID == nil) {
			writeFieldErrors(w, map[string]string{
				"conversationId": "exactly one of conversationId or listingId is required",
			})
			return
		}

		msg, err := msgSvc.Send(r.Context(), user.ID, service.SendMessageInput{
			ConversationID: req.ConversationID,
			ListingID:      req.ListingID,
			Text:           req.MessageText,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

type markReadRequest struct {
	ConversationID int64 `json:"conversationId" validate:"required,gt=0"`
}

func handleMarkRead(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req markReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if fields := validateStruct(req); fields != nil {
			writeFieldErrors(w, fields)
			return
		}

		if err := msgSvc.MarkConversationRead(r.Context(), req.ConversationID, user.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleUnreadCount(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		count, err := msgSvc.UnreadCountFor(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": count})
	}
}
