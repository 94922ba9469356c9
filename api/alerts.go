package api

import (
	"fmt"
	"net/http"
	"strings"

	"DiscordArchive/db"
)

const defaultAlertThreshold = 7

type alertRequest struct {
	Name          *string `json:"name"`
	AlertType     *string `json:"alertType"`
	Threshold     *int    `json:"threshold"`
	ChannelFilter *string `json:"channelFilter"`
	IsActive      *bool   `json:"isActive"`
}

// apply copies the fields present in the request onto a.
func (in alertRequest) apply(a *db.ActivityAlert) error {
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.AlertType != nil {
		a.AlertType = *in.AlertType
	}
	if in.Threshold != nil {
		a.Threshold = *in.Threshold
	}
	if in.ChannelFilter != nil {
		a.ChannelFilter = db.NormalizeTags(*in.ChannelFilter)
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}

	switch {
	case a.Name == "":
		return badRequest("name is required")
	case a.AlertType != db.AlertZeroMessages && a.AlertType != db.AlertVolumeSpike:
		return badRequest("alertType must be zero_messages or volume_spike")
	case a.Threshold <= 0:
		return badRequest("threshold must be positive")
	case a.AlertType == db.AlertZeroMessages && a.Threshold > db.MaxLookbackDays:
		return badRequest(fmt.Sprintf("threshold must be at most %d days", db.MaxLookbackDays))
	}
	return nil
}

func (h *Handler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListAlerts(r.Context())
	list(h, w, r, rows, err)
}

func (h *Handler) HandleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var in alertRequest
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	a := &db.ActivityAlert{Threshold: defaultAlertThreshold, IsActive: true, CreatedBy: h.userID(r)}
	if err := in.apply(a); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.CreateAlert(r.Context(), a); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) HandleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in alertRequest
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	a, err := h.store.GetAlert(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := in.apply(a); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.UpdateAlert(r.Context(), a); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) HandleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.DeleteAlert(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleCheckAlerts runs a sweep now and reports what fired.
func (h *Handler) HandleCheckAlerts(w http.ResponseWriter, r *http.Request) {
	triggered, err := h.alerts.CheckAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"triggered": triggered})
}
