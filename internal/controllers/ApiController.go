package controllers

import (
	"approachlog/internal/models"
	"approachlog/internal/providers"
	"approachlog/internal/services"
	"approachlog/internal/storage"
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// photos travel as data URLs, so bodies are large
const maxRequestBodySize = 8 << 20 // 8 MB

type ApiController struct {
	logger  providers.Logger
	service services.ApproachServiceInterface
}

func NewApiController(logger providers.Logger, service services.ApproachServiceInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type photoRequest struct {
	RecordID string `json:"recordId"`
	PersonID string `json:"personId"`
	URL      string `json:"url,omitempty"`
	Index    int    `json:"index"`
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// writeError maps service errors onto status codes.
func (ac *ApiController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case storage.IsStorageFault(err):
		status = http.StatusServiceUnavailable
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalid),
		errors.Is(err, models.ErrPhotoIndex),
		errors.Is(err, models.ErrPhotoLimit),
		errors.Is(err, services.ErrRestoreFailed):
		status = http.StatusUnprocessableEntity
	}

	logType := providers.GetLogTypeByRequestType(r.Method)
	if status >= http.StatusInternalServerError {
		ac.logger.Errorf(logType, "%s %s: %s", r.Method, r.URL.Path, err)
	} else {
		ac.logger.Debugf(logType, "%s %s: %s", r.Method, r.URL.Path, err)
	}
	ac.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (ac *ApiController) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ac.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		ac.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Bad Request"})
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		ac.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Bad Request"})
		return false
	}
	return true
}

func (ac *ApiController) requireParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		ac.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing parameter " + name})
		return "", false
	}
	return v, true
}

func (ac *ApiController) ListApproaches(w http.ResponseWriter, r *http.Request) {
	records, err := ac.service.ListAll(r.Context())
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, services.SortByDateDesc(records))
}

func (ac *ApiController) CreateApproach(w http.ResponseWriter, r *http.Request) {
	var draft models.ApproachRecord
	if !ac.decode(w, r, &draft) {
		return
	}
	record, err := ac.service.Create(r.Context(), &draft)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusCreated, record)
}

func (ac *ApiController) GetApproach(w http.ResponseWriter, r *http.Request) {
	id, ok := ac.requireParam(w, r, "id")
	if !ok {
		return
	}
	record, err := ac.service.FindByID(r.Context(), id)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	if record == nil {
		ac.writeJSON(w, http.StatusNotFound, errorResponse{Error: "approach not found"})
		return
	}
	ac.writeJSON(w, http.StatusOK, record)
}

func (ac *ApiController) SaveApproach(w http.ResponseWriter, r *http.Request) {
	var record models.ApproachRecord
	if !ac.decode(w, r, &record) {
		return
	}
	saved, err := ac.service.Save(r.Context(), &record)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, saved)
}

func (ac *ApiController) DeleteApproach(w http.ResponseWriter, r *http.Request) {
	id, ok := ac.requireParam(w, r, "id")
	if !ok {
		return
	}
	if err := ac.service.Delete(r.Context(), id); err != nil {
		ac.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := services.Filters{
		Name:         q.Get("name"),
		RG:           q.Get("rg"),
		CPF:          q.Get("cpf"),
		Location:     q.Get("location"),
		Observations: q.Get("observations"),
		VehiclePlate: q.Get("plate"),
		Companion:    q.Get("companion"),
	}
	records, err := ac.service.Search(r.Context(), q.Get("q"), filters)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, services.SortByDateDesc(records))
}

func (ac *ApiController) People(w http.ResponseWriter, r *http.Request) {
	people, err := ac.service.People(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, people)
}

func (ac *ApiController) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := ac.requireParam(w, r, "id")
	if !ok {
		return
	}
	profile, err := ac.service.Profile(r.Context(), id)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, profile)
}

func (ac *ApiController) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := ac.requireParam(w, r, "id")
	if !ok {
		return
	}
	var edit models.PersonEntry
	if !ac.decode(w, r, &edit) {
		return
	}
	updated, err := ac.service.UpdatePerson(r.Context(), id, edit)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (ac *ApiController) Related(w http.ResponseWriter, r *http.Request) {
	person, ok := ac.requireParam(w, r, "person")
	if !ok {
		return
	}
	records, err := ac.service.Related(r.Context(), person, r.URL.Query().Get("exclude"))
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, records)
}

func (ac *ApiController) photoOp(w http.ResponseWriter, r *http.Request, op func(req photoRequest) (*models.ApproachRecord, error)) {
	var req photoRequest
	if !ac.decode(w, r, &req) {
		return
	}
	record, err := op(req)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, record)
}

func (ac *ApiController) AddPhoto(w http.ResponseWriter, r *http.Request) {
	ac.photoOp(w, r, func(req photoRequest) (*models.ApproachRecord, error) {
		return ac.service.AddPhoto(r.Context(), req.RecordID, req.PersonID, req.URL)
	})
}

func (ac *ApiController) SetProfilePhoto(w http.ResponseWriter, r *http.Request) {
	ac.photoOp(w, r, func(req photoRequest) (*models.ApproachRecord, error) {
		return ac.service.SetProfilePhoto(r.Context(), req.RecordID, req.PersonID, req.Index)
	})
}

func (ac *ApiController) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	ac.photoOp(w, r, func(req photoRequest) (*models.ApproachRecord, error) {
		return ac.service.RemovePhoto(r.Context(), req.RecordID, req.PersonID, req.Index)
	})
}

func (ac *ApiController) ExportBackup(w http.ResponseWriter, r *http.Request) {
	ok, err := ac.service.ExportNow(r.Context())
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (ac *ApiController) ImportBackup(w http.ResponseWriter, r *http.Request) {
	restored, err := ac.service.RestoreFromBackup(r.Context())
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, map[string]int{"restored": restored})
}
