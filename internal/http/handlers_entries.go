package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"timetracker/internal/core"
	applog "timetracker/internal/log"
	"timetracker/internal/services"
)

const msgEntryNotFound = "Time entry not found"

var errEntryNotFound = errors.New("entry not found")

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	start, end, err := ParseDateRange(r.URL.Query())
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	key, load := "all", s.repo.FetchAll
	if start != "" || end != "" {
		key = rangeKey(start, end)
		load = func(ctx context.Context) ([]core.TimeEntry, error) {
			return s.repo.FetchByDateRange(ctx, start, end)
		}
	}

	// A storage fault still answers with an empty list but is not cached.
	entries, err := cached(r.Context(), s, s.entriesCache, key, load)
	if err != nil {
		entries = []core.TimeEntry{}
	}
	NewJSONResponse().Field("entries", entries).Write(w)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, err := cached(r.Context(), s, s.entryCache, id, func(ctx context.Context) (core.TimeEntry, error) {
		e, ok := s.repo.GetByID(ctx, id)
		if !ok {
			return core.TimeEntry{}, errEntryNotFound
		}
		return e, nil
	})
	if err != nil {
		NotFoundError(msgEntryNotFound).Write(w)
		return
	}
	NewJSONResponse().Field("entry", e).Write(w)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := cached(r.Context(), s, s.progressCache, id, func(ctx context.Context) (core.TaskProgress, error) {
		p, ok := s.repo.GetProgress(ctx, id)
		if !ok {
			return core.TaskProgress{}, errEntryNotFound
		}
		return p, nil
	})
	if err != nil {
		NotFoundError(msgEntryNotFound).Write(w)
		return
	}
	NewJSONResponse().
		Field("progress", p.Progress).
		Field("completed", p.Completed).
		Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parseEntryBody(w, r)
	if !ok {
		return
	}

	res, err := s.mutator.Create(r.Context(), in)
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}
	if !res.Success {
		InternalServerError(res.Error).Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.mutations, 1)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/entries/"+res.ID).
		Field("id", res.ID).
		Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parseEntryBody(w, r)
	if !ok {
		return
	}

	res, err := s.mutator.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}
	s.writeResult(w, res, nil)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, s.mutator.Delete(r.Context(), r.PathValue("id")), nil)
}

func (s *Server) handleSetProgress(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	progress, completed, err := ParseProgressInput(parser)
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	res, err := s.mutator.SetProgress(r.Context(), r.PathValue("id"), progress, completed)
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}
	s.writeResult(w, res, func(b *JSONResponseBuilder) {
		b.Field("progress", progress).Field("completed", completed)
	})
}

// parseEntryBody reads an entry from a JSON or form body, writing the
// error response itself when it fails.
func (s *Server) parseEntryBody(w http.ResponseWriter, r *http.Request) (core.EntryInput, bool) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to parse request body",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeValidation)
		BadRequestError("Invalid request body").Write(w)
		return core.EntryInput{}, false
	}
	in, err := ParseEntryInput(parser)
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return core.EntryInput{}, false
	}
	return in, true
}

// writeResult maps a mutation result onto the envelope: not found is 404,
// an unchanged document is an unsuccessful 200 and any other failure is 500.
func (s *Server) writeResult(w http.ResponseWriter, res services.Result, extra func(*JSONResponseBuilder)) {
	switch {
	case res.NotFound:
		NotFoundError(res.Error).Write(w)
	case res.Unchanged:
		NewJSONResponse().Fail(res.Error).Field("id", res.ID).Write(w)
	case !res.Success:
		msg := res.Error
		if strings.TrimSpace(msg) == "" {
			msg = "Internal server error"
		}
		InternalServerError(msg).Write(w)
	default:
		atomic.AddInt64(&s.appMetrics.mutations, 1)
		b := NewJSONResponse().Field("id", res.ID)
		if extra != nil {
			extra(b)
		}
		b.Write(w)
	}
}
