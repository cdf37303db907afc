package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/chat"
	"github.com/disha-ai/disha/internal/interview"
	"github.com/disha-ai/disha/internal/panel"
	"github.com/disha-ai/disha/internal/resume"
	"github.com/disha-ai/disha/internal/workspace"
)

var (
	errBadRequest            = errors.New("bad request")
	errObjectStorageDisabled = errors.New("object storage is not configured")
	errObjectFetch           = errors.New("resume download failed")
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, workspace.ErrUnknownWorkspace):
		return http.StatusNotFound
	case errors.Is(err, errObjectFetch):
		return http.StatusBadGateway
	case errors.Is(err, chat.ErrBusy),
		errors.Is(err, panel.ErrBusy),
		errors.Is(err, interview.ErrBusy),
		errors.Is(err, interview.ErrInvalidState):
		return http.StatusConflict
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, resume.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, panel.ErrMissingField),
		errors.Is(err, interview.ErrMissingTopic),
		errors.Is(err, interview.ErrInvalidLevel),
		errors.Is(err, interview.ErrUnknownQuestion),
		errors.Is(err, interview.ErrInvalidOption),
		errors.Is(err, workspace.ErrUnknownView),
		errors.Is(err, workspace.ErrInvalidID),
		errors.Is(err, errObjectStorageDisabled),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (s *Server) workspace(r *http.Request) (*workspace.Workspace, error) {
	return s.workspaces.Get(mux.Vars(r)["id"])
}

type createWorkspaceRequest struct {
	ID string `json:"id"`
}

func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ws, err := s.workspaces.Create(r.Context(), req.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws.Snapshot())
}

func (s *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

type selectViewRequest struct {
	View string `json:"view"`
}

func (s *Server) selectView(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req selectViewRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := ws.Select(workspace.View(req.View)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

type chatView struct {
	Messages []career.Message `json:"messages"`
	Busy     bool             `json:"busy"`
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatView{Messages: ws.Chat.Messages(), Busy: ws.Chat.Busy()})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) postChat(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req chatRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	stream, ok := newEventStream(w)
	if !ok {
		s.fail(w, r, errors.New("streaming unsupported"))
		return
	}

	final, err := ws.Chat.Send(r.Context(), req.Message, func(m career.Message) {
		stream.send("message", m)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stream.send("done", final)
}

type roadmapRequest struct {
	Role       string `json:"role"`
	Background string `json:"background"`
}

func (s *Server) getRoadmap(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Roadmap.Snapshot())
}

func (s *Server) postRoadmap(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req roadmapRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := ws.Roadmap.Generate(r.Context(), req.Role, req.Background); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Roadmap.Snapshot())
}

type interviewRequest struct {
	Topic string `json:"topic"`
	Level string `json:"level"`
	Count int    `json:"count"`
}

type answerRequest struct {
	QuestionID int `json:"questionId"`
	Option     int `json:"option"`
}

func (s *Server) getInterview(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Interview.Snapshot())
}

func (s *Server) startInterview(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req interviewRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Level == "" {
		req.Level = string(career.Beginner)
	}
	if err := ws.Interview.Start(r.Context(), req.Topic, career.Level(req.Level), req.Count); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Interview.Snapshot())
}

func (s *Server) selectAnswer(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req answerRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := ws.Interview.Select(req.QuestionID, req.Option); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Interview.Snapshot())
}

func (s *Server) submitInterview(w http.ResponseWriter, r *http.Request) {
	s.interviewAction(w, r, (*interview.Drill).Submit)
}

func (s *Server) resetInterview(w http.ResponseWriter, r *http.Request) {
	s.interviewAction(w, r, (*interview.Drill).Reset)
}

func (s *Server) interviewAction(w http.ResponseWriter, r *http.Request, action func(*interview.Drill) error) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := action(ws.Interview); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Interview.Snapshot())
}

type resumeRequest struct {
	Text      string `json:"text"`
	ObjectKey string `json:"objectKey"`
	Role      string `json:"role"`
}

func (s *Server) getResume(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Resume.Snapshot())
}

func (s *Server) postResume(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	text, role, err := s.resumeInput(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := ws.Resume.Analyze(r.Context(), text, role); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Resume.Snapshot())
}

// resumeInput reads resume text from a multipart upload, an object key, or
// inline JSON text.
func (s *Server) resumeInput(r *http.Request) (text, role string, err error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return "", "", fmt.Errorf("%w: %w", errBadRequest, err)
		}
		role = r.FormValue("role")
		if t := r.FormValue("text"); strings.TrimSpace(t) != "" {
			return t, role, nil
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", role, nil
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", "", err
		}
		text, err = resume.Extract(resume.DetectMIME(header.Filename, header.Header.Get("Content-Type")), data)
		if err != nil && !errors.Is(err, resume.ErrUnsupportedType) {
			return "", "", fmt.Errorf("%w: %w", errBadRequest, err)
		}
		return text, role, err
	}

	var req resumeRequest
	if err := decode(r, &req); err != nil {
		return "", "", err
	}
	if req.ObjectKey == "" {
		return req.Text, req.Role, nil
	}
	if s.objects == nil {
		return "", "", errObjectStorageDisabled
	}
	text, err = s.objects.Text(r.Context(), req.ObjectKey)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", errObjectFetch, req.ObjectKey, err)
	}
	return text, req.Role, nil
}

type coursesRequest struct {
	Goal string `json:"goal"`
	Gap  string `json:"gap"`
}

func (s *Server) getCourses(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Courses.Snapshot())
}

func (s *Server) postCourses(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req coursesRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := ws.Courses.Recommend(r.Context(), req.Goal, req.Gap); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Courses.Snapshot())
}
