package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/nvr-ai/wayang/controller"
	"github.com/nvr-ai/wayang/images"
	"github.com/nvr-ai/wayang/inference"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/models"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
)

// errBadImage marks request images that cannot be decoded.
var errBadImage = errors.New("invalid image")

type modelView struct {
	Name        model.Name   `json:"name"`
	DisplayName string       `json:"display_name"`
	Family      model.Family `json:"family"`
	File        string       `json:"file"`
	Loaded      bool         `json:"loaded"`
	Default     bool         `json:"default"`
}

type predictionView struct {
	*inference.Prediction
	DurationMS float64 `json:"duration_ms"`
}

type predictResponse struct {
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Results []predictionView `json:"results"`
}

type classifyRequest struct {
	Image string     `json:"image"`
	Model model.Name `json:"model"`
}

type classScore struct {
	Class       string  `json:"class"`
	Confidence  float32 `json:"confidence"`
	Description string  `json:"description"`
}

type classifyResponse struct {
	PredictedClass string       `json:"predicted_class"`
	Confidence     float32      `json:"confidence"`
	Description    string       `json:"description"`
	AllPredictions []classScore `json:"all_predictions"`
	ModelUsed      model.Name   `json:"model_used"`
}

type sessionRequest struct {
	Model model.Name `json:"model"`
}

type sessionResponse struct {
	ID     string     `json:"id"`
	Model  model.Name `json:"model"`
	Frames uint64     `json:"frames"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := map[string]any{
		"Models":  s.modelViews(),
		"Default": s.fallback,
	}
	if err := s.page.Execute(w, data); err != nil {
		logger.Error("server", "rendering index: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"models": s.modelViews()})
}

func (s *Server) modelViews() []modelView {
	loaded := map[model.Name]bool{}
	if s.models != nil {
		for _, n := range s.models.Loaded() {
			loaded[n] = true
		}
	}
	views := make([]modelView, 0, len(model.Names()))
	for _, v := range model.Variants() {
		views = append(views, modelView{
			Name:        v.Name,
			DisplayName: v.DisplayName,
			Family:      v.Family,
			File:        v.File,
			Loaded:      loaded[v.Name],
			Default:     v.Name == s.fallback,
		})
	}
	return views
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image file provided, use 'image' as the form field name")
		return
	}
	defer file.Close()

	names, err := s.parseModels(r.MultipartForm.Value["model"])
	if err != nil {
		writeFailure(w, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	img, format, err := images.Decode(data)
	if err != nil {
		writeFailure(w, errors.Wrap(errBadImage, err.Error()))
		return
	}
	rgb := images.ToRGB(img)
	logger.Debug("server", "received %s (%s, %dx%d) for %v", header.Filename, format, rgb.Rect.Dx(), rgb.Rect.Dy(), names)

	resp := predictResponse{Width: rgb.Rect.Dx(), Height: rgb.Rect.Dy()}
	for _, name := range names {
		p, err := s.predictor.Predict(r.Context(), rgb, name)
		if err != nil {
			writeFailure(w, err)
			return
		}
		resp.Results = append(resp.Results, predictionView{
			Prediction: p,
			DurationMS: float64(p.Duration.Microseconds()) / 1000,
		})
	}
	writeJSON(w, resp)
}

// parseModels validates every requested identifier before any inference runs.
// No identifiers selects the default model; duplicates are dropped.
func (s *Server) parseModels(raw []string) ([]model.Name, error) {
	var names []model.Name
	seen := map[model.Name]bool{}
	for _, field := range raw {
		for _, part := range strings.Split(field, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			name, err := model.ParseName(part)
			if err != nil {
				return nil, err
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		names = []model.Name{s.fallback}
	}
	return names, nil
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	name := req.Model
	if name == "" {
		name = s.fallback
	}
	if _, err := model.Lookup(name); err != nil {
		writeFailure(w, err)
		return
	}

	img, err := decodeBase64Image(req.Image)
	if err != nil {
		writeFailure(w, err)
		return
	}

	p, err := s.predictor.Predict(r.Context(), img, name)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp := classifyResponse{
		PredictedClass: p.Label,
		Confidence:     p.Confidence,
		Description:    p.Description,
		ModelUsed:      p.Model,
	}
	for _, t := range p.Top {
		var desc string
		if idx, ok := models.Labels.Index(t.Label); ok {
			desc = models.Labels.Classes[idx].Description
		}
		resp.AllPredictions = append(resp.AllPredictions, classScore{Class: t.Label, Confidence: t.Confidence, Description: desc})
	}
	writeJSON(w, resp)
}

// decodeBase64Image accepts plain base64 or a data URL.
func decodeBase64Image(encoded string) (image.Image, error) {
	if i := strings.Index(encoded, ","); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, errors.Wrap(errBadImage, "image is not valid base64")
	}
	img, _, err := images.Decode(data)
	if err != nil {
		return nil, errors.Wrap(errBadImage, err.Error())
	}
	return images.ToRGB(img), nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	sess, err := s.sessions.Create(req.Model)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSONWithStatus(w, sessionView(sess), http.StatusCreated)
}

func (s *Server) handleSetModel(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := sess.SetModel(req.Model); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, sessionView(sess))
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "frame too large")
		return
	}

	result, err := sess.ProcessFrame(r.Context(), data)
	if err != nil {
		writeFailure(w, errors.Wrap(errBadImage, err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Wayang-Label", result.Label)
	w.Header().Set("X-Wayang-Confidence", strconv.FormatFloat(float64(result.Confidence), 'f', 4, 32))
	w.Header().Set("X-Wayang-Model", result.Model.String())
	w.Header().Set("X-Wayang-Frame", strconv.FormatUint(result.Index, 10))
	_, _ = w.Write(result.JPEG)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionView(sess *controller.Session) sessionResponse {
	return sessionResponse{ID: sess.ID.String(), Model: sess.Model(), Frames: sess.Frames()}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		unknown *model.UnknownModelError
		load    *model.ModelLoadError
		pred    *model.PredictionError
	)
	switch {
	case errors.As(err, &unknown), errors.Is(err, errBadImage):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.As(err, &load):
		return http.StatusServiceUnavailable
	case errors.As(err, &pred):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("server", "%v", err)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONWithStatus(w, map[string]string{"error": msg}, status)
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONWithStatus(w, payload, http.StatusOK)
}

func writeJSONWithStatus(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}
