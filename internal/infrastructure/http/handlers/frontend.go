// Package handlers provides HTTP handlers for the HTMX frontend and the JSON API
package handlers

import (
	"bytes"
	"html/template"
	"mime"
	"net/http"
	"strconv"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/cardapio/internal/application/planner"
	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
	"github.com/alchemorsel/cardapio/internal/infrastructure/http/webserver"
	"github.com/alchemorsel/cardapio/internal/ports/inbound"
	apperrors "github.com/alchemorsel/cardapio/pkg/errors"
)

// User-facing messages of the form
const (
	invalidFormMessage       = "Preencha todos os campos corretamente."
	reportUnavailableMessage = "O relatório fica disponível depois que o cardápio e os exercícios forem gerados."
)

var fieldLabels = map[string]string{
	"Age":           "idade",
	"Gender":        "sexo",
	"Weight":        "peso",
	"Height":        "altura",
	"ActivityLevel": "nível de atividade",
	"Goal":          "objetivo",
}

// AppInfo is shown in the page header and footer
type AppInfo struct {
	Name    string
	Version string
}

// FrontendHandlers serves the single planner page and its HTMX fragments
type FrontendHandlers struct {
	templates *template.Template
	planner   inbound.PlannerService
	cookies   *webserver.SessionCookies
	app       AppInfo
	logger    *zap.Logger
}

// NewFrontendHandlers creates a new frontend handlers instance
func NewFrontendHandlers(
	templates *template.Template,
	planner inbound.PlannerService,
	cookies *webserver.SessionCookies,
	app AppInfo,
	logger *zap.Logger,
) *FrontendHandlers {
	return &FrontendHandlers{
		templates: templates,
		planner:   planner,
		cookies:   cookies,
		app:       app,
		logger:    logger.Named("frontend"),
	}
}

// HandleHome renders whichever step the session is on
func (h *FrontendHandlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	id := h.cookies.ID(w, r)

	sess, err := h.planner.Session(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", zap.String("session_id", id), zap.Error(err))
		h.renderForm(w, r, http.StatusInternalServerError, valuesFromProfile(nutrition.DefaultProfile()), planner.GenericFailureMessage)
		return
	}

	page := h.page()
	switch sess.Step {
	case planning.StepLoading:
		page.Loading = newLoadingView(sess)
	case planning.StepResults:
		result, err := sess.Result()
		if err != nil {
			// Incomplete results are treated as an empty form
			page.Form = newFormView(valuesFromProfile(nutrition.DefaultProfile()), "")
			break
		}
		page.Results = newResultsView(result)
	default:
		page.Form = newFormView(valuesFromProfile(nutrition.DefaultProfile()), sess.Error)
	}

	h.render(w, r, http.StatusOK, "layout", page)
}

// HandleSubmit validates the form and starts generation
func (h *FrontendHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id := h.cookies.ID(w, r)

	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, valuesFromProfile(nutrition.DefaultProfile()), invalidFormMessage)
		return
	}

	values := FormValues{
		Age:           r.PostForm.Get("age"),
		Weight:        r.PostForm.Get("weight"),
		Height:        r.PostForm.Get("height"),
		Gender:        r.PostForm.Get("gender"),
		ActivityLevel: r.PostForm.Get("activityLevel"),
		Goal:          r.PostForm.Get("goal"),
	}

	profile, err := values.Profile()
	if err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, values, invalidFormMessage)
		return
	}

	_, err = h.planner.Submit(r.Context(), id, profile)
	switch {
	case err == nil, apperrors.Is(err, apperrors.CodeGenerationInProgress):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case apperrors.Is(err, apperrors.CodeValidationFailed):
		h.renderForm(w, r, http.StatusUnprocessableEntity, values, validationMessage(err))
	default:
		h.logger.Error("Failed to submit profile", zap.String("session_id", id), zap.Error(err))
		h.renderForm(w, r, http.StatusInternalServerError, values, planner.GenericFailureMessage)
	}
}

// HandleStatus is polled by the loading fragment. It returns the fragment
// again while generation runs and redirects to the page once it is done.
func (h *FrontendHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cookies.Lookup(r)
	if !ok {
		h.redirectHome(w, r)
		return
	}

	sess, err := h.planner.Session(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", zap.String("session_id", id), zap.Error(err))
		h.redirectHome(w, r)
		return
	}

	if sess.Step != planning.StepLoading {
		h.redirectHome(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "loading", newLoadingView(sess))
}

// HandleReset clears the session ("Novo cardápio")
func (h *FrontendHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.cookies.Lookup(r); ok {
		if err := h.planner.Reset(r.Context(), id); err != nil {
			h.logger.Error("Failed to reset session", zap.String("session_id", id), zap.Error(err))
		}
	}
	h.redirectHome(w, r)
}

// HandleReport downloads the PDF. The document is rendered into memory
// first so a failure never leaves a truncated attachment.
func (h *FrontendHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cookies.Lookup(r)
	if !ok {
		http.Error(w, reportUnavailableMessage, http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	file, err := h.planner.Report(r.Context(), id, &buf)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeReportUnavailable) {
			http.Error(w, reportUnavailableMessage, http.StatusConflict)
			return
		}
		h.logger.Error("Failed to render report", zap.String("session_id", id), zap.Error(err))
		http.Error(w, "Erro ao gerar o relatório. Tente novamente.", http.StatusInternalServerError)
		return
	}

	WriteAttachment(w, file, buf.Bytes())
}

// WriteAttachment sends body as a download described by file
func WriteAttachment(w http.ResponseWriter, file inbound.ReportFile, body []byte) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *FrontendHandlers) page() PageData {
	return PageData{
		Title:      h.app.Name + " - Cardápio personalizado",
		AppName:    h.app.Name,
		Version:    h.app.Version,
		Disclaimer: mealplan.Disclaimer,
	}
}

func (h *FrontendHandlers) renderForm(w http.ResponseWriter, r *http.Request, status int, values FormValues, message string) {
	page := h.page()
	page.Form = newFormView(values, message)
	h.render(w, r, status, "layout", page)
}

// render buffers the template so an execution error can still become a 500
func (h *FrontendHandlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("Template rendering failed",
			zap.String("template", name),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirectHome uses HX-Redirect for HTMX requests so the whole page reloads
func (h *FrontendHandlers) redirectHome(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// validationMessage lists the rejected fields in Portuguese
func validationMessage(err error) string {
	var fields []string
	if appErr := apperrors.Wrap(err, ""); appErr != nil {
		if list, ok := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors); ok {
			for _, fe := range list {
				if label, ok := fieldLabels[fe.Field]; ok {
					fields = append(fields, label)
				}
			}
		}
	}
	if len(fields) == 0 {
		return invalidFormMessage
	}
	return "Verifique os campos: " + strings.Join(fields, ", ") + "."
}
