package notes_box

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/smartnotes/internal/middleware"
	"github.com/2beens/smartnotes/internal/notes"
	"github.com/2beens/smartnotes/internal/telemetry/metrics"
	"github.com/2beens/smartnotes/internal/telemetry/tracing"
	"github.com/2beens/smartnotes/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type NotesListResponse struct {
	Notes []notes.View `json:"notes"`
	Total int          `json:"total"`
}

type AddNoteResponse struct {
	Note         notes.View `json:"note"`
	PersistError string     `json:"persist_error,omitempty"`
}

type DeleteNoteResponse struct {
	Deleted      int64  `json:"deleted"`
	Total        int    `json:"total"`
	PersistError string `json:"persist_error,omitempty"`
}

// Handler is the HTTP surface over the notes store. Store calls are
// serialized by mu, the store itself does no locking.
type Handler struct {
	mu       sync.Mutex
	store    *notes.Store
	metrics  *metrics.Manager
	location *time.Location
	now      func() time.Time
}

func NewHandler(
	store *notes.Store,
	metrics *metrics.Manager,
	location *time.Location,
) *Handler {
	if location == nil {
		location = time.Local
	}
	return &Handler{
		store:    store,
		metrics:  metrics,
		location: location,
		now:      time.Now,
	}
}

func (handler *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	mutationsPerMin int,
) {
	router.HandleFunc("/notes", handler.HandleList).Methods("GET").Name("list-notes")
	router.HandleFunc("/notes/{id:[0-9]+}", handler.HandleGet).Methods("GET").Name("get-note")

	mutations := router.NewRoute().Subrouter()
	mutations.HandleFunc("/notes", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-note")
	mutations.HandleFunc("/notes/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-note")
	if rateLimiter != nil && mutationsPerMin > 0 {
		mutations.Use(middleware.RateLimit(rateLimiter, "notes-mutations", mutationsPerMin, handler.metrics))
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "notesHandler.add")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		log.Errorf("add new note failed, parse form error: %s", err)
		http.Error(w, "parse form error", http.StatusBadRequest)
		span.SetStatus(codes.Error, "parse-form")
		return
	}

	title := r.Form.Get("title")
	content := r.Form.Get("content")
	deadline, err := notes.ParseDeadline(r.Form.Get("deadline"), handler.location)
	if err != nil {
		http.Error(w, fmt.Sprintf("error, %s", err), http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-deadline")
		return
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()

	updated, err := handler.store.Add(ctx, title, content, deadline)
	if errors.Is(err, notes.ErrEmptyField) {
		handler.metrics.CounterNotesRejected.Inc()
		http.Error(w, "error, title or content empty", http.StatusBadRequest)
		span.SetStatus(codes.Error, "empty-field")
		return
	}

	added := updated[len(updated)-1]
	handler.metrics.CounterNotesAdded.Inc()
	handler.metrics.GaugeNotes.Set(float64(len(updated)))
	span.SetAttributes(attribute.Int64("note.id", added.ID))

	now := handler.now()
	due, _ := notes.FormatDeadline(added, now)
	resp := AddNoteResponse{
		Note: notes.View{
			Note:   added,
			Urgent: notes.IsUrgent(added, now),
			Due:    due,
		},
	}
	if err != nil {
		handler.persistFailed(err)
		resp.PersistError = err.Error()
		span.RecordError(err)
	}

	log.Printf("new note added: [%s]: %d", added.Title, added.ID)
	span.SetStatus(codes.Ok, "added")
	pkg.WriteJSON(w, resp, http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "notesHandler.delete")
	defer span.End()

	id, err := noteIDFromRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("error, %s", err), http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-id")
		return
	}
	span.SetAttributes(attribute.Int64("note.id", id))

	handler.mu.Lock()
	defer handler.mu.Unlock()

	updated, err := handler.store.Delete(ctx, id)
	handler.metrics.CounterNotesDeleted.Inc()
	handler.metrics.GaugeNotes.Set(float64(len(updated)))

	resp := DeleteNoteResponse{
		Deleted: id,
		Total:   len(updated),
	}
	if err != nil {
		handler.persistFailed(err)
		resp.PersistError = err.Error()
		span.RecordError(err)
	}

	span.SetStatus(codes.Ok, "deleted")
	pkg.WriteJSON(w, resp, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "notesHandler.list")
	defer span.End()

	// the term is used as typed, no trimming
	term := r.URL.Query().Get("q")

	handler.mu.Lock()
	views := notes.Query(handler.store.List(), term, handler.now())
	handler.mu.Unlock()

	span.SetAttributes(attribute.Int("notes.count", len(views)))
	pkg.WriteJSON(w, NotesListResponse{
		Notes: views,
		Total: len(views),
	}, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := noteIDFromRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("error, %s", err), http.StatusBadRequest)
		return
	}

	handler.mu.Lock()
	note, found := handler.store.Get(id)
	handler.mu.Unlock()

	if !found {
		http.Error(w, "error, note not found", http.StatusNotFound)
		return
	}

	now := handler.now()
	due, _ := notes.FormatDeadline(note, now)
	pkg.WriteJSON(w, notes.View{
		Note:   note,
		Urgent: notes.IsUrgent(note, now),
		Due:    due,
	}, http.StatusOK)
}

func (handler *Handler) persistFailed(err error) {
	handler.metrics.CounterPersistFailures.Inc()
	log.Errorf("notes persisted only in memory: %s", err)
}

func noteIDFromRequest(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		return 0, errors.New("id empty")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, errors.New("id NaN")
	}
	return id, nil
}
