package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"boardtrack/catalog"
	"boardtrack/models"
	"boardtrack/repository"
	"boardtrack/scheduler"

	"github.com/gorilla/mux"
)

type Handlers struct {
	boardRepo    *repository.BoardRepository
	overrideRepo *repository.OverrideRepository
	sweeper      *scheduler.Sweeper
}

func NewHandlers(boardRepo *repository.BoardRepository, overrideRepo *repository.OverrideRepository, sweeper *scheduler.Sweeper) *Handlers {
	return &Handlers{
		boardRepo:    boardRepo,
		overrideRepo: overrideRepo,
		sweeper:      sweeper,
	}
}

// AddBoard registers a new board listing to track.
func (h *Handlers) AddBoard(w http.ResponseWriter, r *http.Request) {
	var req models.AddBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if parsed, err := url.Parse(req.URL); err != nil || !parsed.IsAbs() {
		writeError(w, http.StatusBadRequest, "url must be absolute")
		return
	}

	specs := catalog.ExtractSpecs(req.Name)
	seed := models.TrackedBoard{
		ModelKey:    specs.ModelKey,
		Socket:      specs.Socket,
		Chipset:     specs.Chipset,
		RAMSpeedMHz: specs.RAMSpeedMHz,
		FormFactor:  specs.FormFactor,
		Category:    req.Category,
	}
	if seed.Category == "" {
		seed.Category = "motherboard"
	}

	board, err := h.boardRepo.AddBoard(req.URL, req.Name, seed)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// GetBoards lists all tracked boards.
func (h *Handlers) GetBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.boardRepo.GetBoards()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get boards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"boards": boards,
		"count":  len(boards),
	})
}

// GetBoard returns one board's details.
func (h *Handlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	board, err := h.boardRepo.GetBoardByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// DeleteBoard stops tracking a board.
func (h *Handlers) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	if err := h.boardRepo.DeleteBoard(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete board")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CheckBoardNow resolves a board's price immediately and returns the stored
// board along with the raw extraction result.
func (h *Handlers) CheckBoardNow(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	board, err := h.boardRepo.GetBoardByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}

	if err := h.sweeper.CheckBoard(context.Background(), board); err != nil {
		writeError(w, http.StatusBadGateway, "Price check failed: "+err.Error())
		return
	}

	updated, err := h.boardRepo.GetBoardByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload board")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// GetPriceHistory returns the recorded price points for a board.
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := h.boardRepo.GetPriceHistory(id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get price history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"board_id": id,
		"history":  history,
		"count":    len(history),
	})
}

// SetOverride installs a skip or replace-URL directive for a board.
func (h *Handlers) SetOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	var req models.SetOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	override, err := h.overrideRepo.SetOverride(id, req.Action, req.ReplacementURL, req.Note)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, override)
}

// DeleteOverride removes a board's override.
func (h *Handlers) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	if err := h.overrideRepo.DeleteOverride(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete override")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func boardID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid board ID")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
