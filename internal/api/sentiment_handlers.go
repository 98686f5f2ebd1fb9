package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"pulsewatch.io/sentiment-api/internal/core"
)

// productParam extracts and validates the product query parameter. Empty
// or whitespace-only products are rejected here, before any store access.
func productParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	product := strings.TrimSpace(r.URL.Query().Get("product"))
	if product == "" {
		http.Error(w, "Query parameter 'product' is required", http.StatusBadRequest)
		return "", false
	}
	return product, true
}

func (h *APIHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := productParam(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	summary, err := h.sentimentService.Summarize(product, user.ID)
	if err != nil {
		log.Printf("Error summarizing %q: %v", product, err)
		http.Error(w, "Failed to compute sentiment summary", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(summary)
}

func (h *APIHandler) TopCommentsHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := productParam(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Query parameter 'limit' must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	comments, err := h.sentimentService.TopComments(product, user.ID, limit)
	if err != nil {
		log.Printf("Error fetching top comments for %q: %v", product, err)
		http.Error(w, "Failed to fetch comments", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(comments)
}

func (h *APIHandler) WeeklyHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := productParam(w, r)
	if !ok {
		return
	}

	buckets, err := h.trendService.Weekly(product)
	if err != nil {
		log.Printf("Error computing weekly trend for %q: %v", product, err)
		http.Error(w, "Failed to compute weekly sentiment", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(buckets)
}

func (h *APIHandler) MonthlyHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := productParam(w, r)
	if !ok {
		return
	}

	buckets, err := h.trendService.Monthly(product)
	if err != nil {
		log.Printf("Error computing monthly trend for %q: %v", product, err)
		http.Error(w, "Failed to compute monthly sentiment", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(buckets)
}

func (h *APIHandler) TrackProductHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := productParam(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	if err := h.trackingService.Track(user.ID, product); err != nil {
		log.Printf("Error tracking %q for user %d: %v", product, user.ID, err)
		http.Error(w, "Failed to track product", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"msg": "Tracking " + product})
}

func (h *APIHandler) UntrackProductHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := productParam(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	if err := h.trackingService.Untrack(user.ID, product); err != nil {
		log.Printf("Error untracking %q for user %d: %v", product, user.ID, err)
		http.Error(w, "Failed to untrack product", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"msg": "Stopped tracking '" + product + "'"})
}

func (h *APIHandler) TrackedProductsHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	products, err := h.trackingService.ListTracked(user.ID)
	if err != nil {
		log.Printf("Error listing tracked products for user %d: %v", user.ID, err)
		http.Error(w, "Failed to list tracked products", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string][]string{"tracked_products": products})
}

func (h *APIHandler) SubmitAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := productParam(w, r)
	if !ok {
		return
	}
	user := currentUser(r)
	timeFilter := r.URL.Query().Get("time_filter")

	err := h.crawlService.RequestCrawl(user.ID, product, timeFilter)
	if err != nil {
		var cooldown *core.CooldownError
		switch {
		case errors.Is(err, core.ErrInvalidTimeFilter):
			http.Error(w, "Invalid time_filter", http.StatusBadRequest)
		case errors.As(err, &cooldown):
			http.Error(w, cooldown.Reason, http.StatusBadRequest)
		case errors.Is(err, core.ErrBadStoredDate):
			log.Printf("Data integrity error for %q (user %d): %v", product, user.ID, err)
			http.Error(w, "Invalid 'created' date format in DB.", http.StatusInternalServerError)
		case errors.Is(err, core.ErrCrawlUpstream):
			log.Printf("Crawl upstream failure for %q (user %d): %v", product, user.ID, err)
			http.Error(w, "Crawl server failed", http.StatusBadGateway)
		default:
			log.Printf("Error submitting analysis for %q (user %d): %v", product, user.ID, err)
			http.Error(w, "Failed to submit analysis", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Crawl triggered successfully"})
}
