package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/postform"
	"github.com/debemdeboas/the-archive-admin/internal/render"
	"github.com/debemdeboas/the-archive-admin/internal/routes"
	"github.com/debemdeboas/the-archive-admin/internal/theme"
	"github.com/debemdeboas/the-archive-admin/internal/util"
)

const maxUploadSize = 10 << 20

// EventPreviewChanged tells the preview pane to refetch itself.
const EventPreviewChanged = "previewChanged"

var editorTemplates = []string{config.TemplateEditor, config.TemplatePreview, config.TemplateHint}

type editorData struct {
	*model.PageData
	Form    *postform.Flow
	Fields  postform.Fields
	Preview *render.PreviewData
	Alert   string
}

func newEditorData(r *http.Request, fl *postform.Flow) editorData {
	fields := fl.Fields()
	return editorData{
		Form:    fl,
		Fields:  fields,
		Preview: render.Preview(fields.Title, fields.Content, fl.ThumbnailURL(), theme.GetSyntaxThemeFromRequest(r)),
	}
}

func (h *Handler) renderEditor(w http.ResponseWriter, r *http.Request, fl *postform.Flow) {
	data := newEditorData(r, fl)
	data.PageData = model.NewPageData(r, state(r).Notifier.Current())
	h.renderPage(w, r, data, editorTemplates...)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	h.renderEditor(w, r, state(r).CreateForm())
}

// updatePost opens the edit form. When the post cannot be fetched the
// author lands back on the listing, where the error is showing.
func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	fl, err := state(r).OpenEditForm(r.Context(), slug)
	if err != nil {
		handlerLogger.Debug().Err(err).Str("slug", slug).Msg("Failed to open post")
		redirect(w, r, "/")
		return
	}
	h.renderEditor(w, r, fl)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) (*postform.Flow, bool) {
	fl, ok := state(r).Form(r.PathValue("form"))
	if !ok {
		http.Error(w, config.ErrFormNotFound, http.StatusNotFound)
		return nil, false
	}
	return fl, true
}

func formURL(fl *postform.Flow) string {
	if fl.Editing {
		return routes.UpdatePostPrefix + fl.Slug
	}
	return routes.CreatePost
}

// redirect sends htmx requests through Hx-Redirect and everything else
// through a plain 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHtmx(r) {
		w.Header().Set(config.HHxRedirect, to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) formField(w http.ResponseWriter, r *http.Request) {
	fl, ok := h.form(w, r)
	if !ok {
		return
	}

	name := r.FormValue("name")
	err := fl.Change(name, r.FormValue("value"))
	if errors.Is(err, postform.ErrUnknownField) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		// The field is updated even when the draft could not be written.
		handlerLogger.Warn().Err(err).Str("field", name).Msg("Draft autosave failed")
	}

	switch name {
	case "meta":
		h.render(w, r, http.StatusOK, "meta-field", newEditorData(r, fl), editorTemplates...)
	case "content":
		content := fl.Fields().Content
		render.WarmCache([]byte(content), util.ContentHashString(content), theme.GetSyntaxThemeFromRequest(r))
		fallthrough
	case "title":
		w.Header().Set(config.HHxTrigger, EventPreviewChanged)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func readUpload(w http.ResponseWriter, r *http.Request, field string) (*model.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, fmt.Errorf("parse upload: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}

	return &model.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(config.HCType),
		Data:        data,
	}, nil
}

func (h *Handler) formThumbnail(w http.ResponseWriter, r *http.Request) {
	fl, ok := h.form(w, r)
	if !ok {
		return
	}

	file, err := readUpload(w, r, "thumbnail")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var alert string
	if err := fl.SetThumbnail(file); errors.Is(err, postform.ErrNotImage) {
		alert = config.ErrNotAnImage
	}

	data := newEditorData(r, fl)
	data.Alert = alert
	h.render(w, r, http.StatusOK, "thumbnail", data, editorTemplates...)
}

func (h *Handler) formImage(w http.ResponseWriter, r *http.Request) {
	fl, ok := h.form(w, r)
	if !ok {
		return
	}

	file, err := readUpload(w, r, "image")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := fl.UploadImage(r.Context(), file); err != nil {
		if errors.Is(err, postform.ErrUploadBusy) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		handlerLogger.Debug().Err(err).Msg("Image upload failed")
	}
	h.render(w, r, http.StatusOK, "image-upload", newEditorData(r, fl), editorTemplates...)
}

// formSubmit answers with the session's notification so the outcome shows
// even when the SSE stream is not connected.
func (h *Handler) formSubmit(w http.ResponseWriter, r *http.Request) {
	fl, ok := h.form(w, r)
	if !ok {
		return
	}

	to, err := fl.Submit(r.Context())
	if errors.Is(err, postform.ErrSubmitBusy) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		handlerLogger.Debug().Err(err).Str("form", fl.Key).Msg("Submit failed")
	}
	if err == nil && to != "" {
		redirect(w, r, to)
		return
	}
	h.render(w, r, http.StatusOK, "notification", state(r).Notifier.Current(), config.TemplateNotify)
}

func (h *Handler) formReset(w http.ResponseWriter, r *http.Request) {
	fl, ok := h.form(w, r)
	if !ok {
		return
	}

	if err := fl.Reset(); err != nil {
		handlerLogger.Error().Err(err).Str("form", fl.Key).Msg("Failed to clear draft")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}
	redirect(w, r, formURL(fl))
}

func (h *Handler) formPreview(w http.ResponseWriter, r *http.Request) {
	fl, ok := h.form(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "preview", newEditorData(r, fl).Preview, config.TemplatePreview)
}
