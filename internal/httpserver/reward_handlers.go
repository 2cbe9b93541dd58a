package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/YongHui-X/ecoplate/internal/service"
)

func handleGetPoints(rewardSvc *service.RewardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		summary, err := rewardSvc.PointsFor(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func handleListRewards(rewardSvc *service.RewardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rewards, err := rewardSvc.ListRewards(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rewards)
	}
}

func handleRedeemReward(rewardSvc *service.RewardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "rewardID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reward id"})
			return
		}
		redemption, err := rewardSvc.Redeem(r.Context(), user.ID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, redemption)
	}
}
