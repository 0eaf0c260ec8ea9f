// Package postform is the post authoring form shared by the create and edit
// pages. A Form owns the field values, the thumbnail and inline image
// uploads, the draft autosave, and submit validation. What happens with a
// valid post is up to the SubmitFunc it was built with.
package postform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/repository/editor"
)

var (
	ErrNotImage     = errors.New(config.ErrNotAnImage)
	ErrUploadBusy   = errors.New("an image upload is already in progress")
	ErrSubmitBusy   = errors.New("a submit is already in progress")
	ErrUnknownField = errors.New("unknown form field")
)

const (
	DefaultMetaLimit = 150
	DefaultMaxTags   = 4
)

var formLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	formLogger = l
}

// Fields is the editable part of a post. It is also the draft format.
type Fields struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Featured  bool   `json:"featured"`
	Content   string `json:"content"`
	Tags      string `json:"tags"`
	Meta      string `json:"meta"`
}

// FieldsFromPost seeds form fields from a post fetched from the backend.
func FieldsFromPost(p *model.Post) Fields {
	return Fields{
		Title:     p.Title,
		Thumbnail: p.Thumbnail,
		Featured:  p.Featured,
		Content:   p.Content,
		Tags:      strings.Join(p.Tags, ", "),
		Meta:      p.Meta,
	}
}

type Notifier interface {
	Notify(kind model.NotificationKind, message string)
}

type Uploader interface {
	UploadImage(ctx context.Context, file *model.Upload) (string, error)
}

type SubmitFunc func(ctx context.Context, p *Payload) error

type Limits struct {
	MetaMax int
	MaxTags int
}

func LimitsFromConfig(c config.ContentConfig) Limits {
	return Limits{MetaMax: c.MetaMaxLength, MaxTags: c.MaxTags}
}

type Options struct {
	Drafts   editor.Repository
	DraftID  editor.DraftID
	Notifier Notifier
	Uploader Uploader
	Submit   SubmitFunc
	Initial  *model.Post
	Limits   Limits
}

type Form struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	id     model.PostID
	fields Fields

	thumbnailFile *model.Upload
	thumbnailURL  string

	uploadedURL string
	uploading   bool
	busy        bool

	drafts   editor.Repository
	draftID  editor.DraftID
	notifier Notifier
	uploader Uploader
	submit   SubmitFunc
	limits   Limits
}

func New(opts Options) *Form {
	f := &Form{
		drafts:   opts.Drafts,
		draftID:  opts.DraftID,
		notifier: opts.Notifier,
		uploader: opts.Uploader,
		submit:   opts.Submit,
		limits:   opts.Limits,
	}
	if f.limits.MetaMax <= 0 {
		f.limits.MetaMax = DefaultMetaLimit
	}
	if f.limits.MaxTags <= 0 {
		f.limits.MaxTags = DefaultMaxTags
	}
	if opts.Initial != nil {
		f.id = opts.Initial.ID
		f.fields = FieldsFromPost(opts.Initial)
		f.thumbnailURL = opts.Initial.Thumbnail
	}
	return f
}

// LoadDraft resumes an abandoned session from the draft store. A missing
// draft leaves the form empty.
func (f *Form) LoadDraft() error {
	if f.drafts == nil {
		return nil
	}

	draft, err := f.drafts.GetDraft(f.draftID)
	if errors.Is(err, editor.ErrDraftNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var fields Fields
	if err := json.Unmarshal(draft.Content, &fields); err != nil {
		return fmt.Errorf("decode draft %s: %w", f.draftID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
	f.thumbnailURL = fields.Thumbnail
	return nil
}

// Change applies one field edit and autosaves the draft.
func (f *Form) Change(field, value string) error {
	warnTags := false

	// saveMu orders draft writes with the edits they snapshot.
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	f.mu.Lock()
	switch field {
	case "title":
		f.fields.Title = value
	case "content":
		f.fields.Content = value
	case "featured":
		f.fields.Featured = parseCheckbox(value)
	case "tags":
		f.fields.Tags = value
		warnTags = len(strings.Split(value, ",")) > f.limits.MaxTags
	case "meta":
		f.fields.Meta = f.clipMeta(value)
	default:
		f.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	fields := f.fields
	f.mu.Unlock()

	if warnTags {
		f.notifier.Notify(model.KindWarning, config.WarnTooManyTags)
	}
	return f.saveDraft(fields)
}

// clipMeta enforces the meta description limit. Once the stored value has
// reached the limit, edits are cut to one character less than the limit.
func (f *Form) clipMeta(value string) string {
	limit := f.limits.MetaMax
	if utf8.RuneCountInString(f.fields.Meta) >= limit {
		limit--
	}
	if utf8.RuneCountInString(value) > limit {
		return string([]rune(value)[:limit])
	}
	return value
}

func parseCheckbox(value string) bool {
	if value == "on" {
		return true
	}
	b, _ := strconv.ParseBool(value)
	return b
}

func (f *Form) saveDraft(fields Fields) error {
	if f.drafts == nil {
		return nil
	}
	// The thumbnail preview may be a data URL of the selected file; only
	// remote URLs belong in the draft.
	if strings.HasPrefix(fields.Thumbnail, "data:") {
		fields.Thumbnail = ""
	}
	content, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := f.drafts.SaveDraft(f.draftID, content); err != nil {
		formLogger.Error().Err(err).Str("draft", f.draftID.String()).Msg("Failed to save draft")
		return err
	}
	return nil
}

// SetThumbnail selects the post thumbnail. Non-images are rejected and the
// current thumbnail is kept.
func (f *Form) SetThumbnail(file *model.Upload) error {
	if !sniffImage(file) {
		return ErrNotImage
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.thumbnailFile = file
	f.thumbnailURL = dataURL(file)
	return nil
}

// UploadImage uploads an image for use inside the post body. Only one upload
// runs at a time; a second call while one is in flight is dropped.
func (f *Form) UploadImage(ctx context.Context, file *model.Upload) error {
	f.mu.Lock()
	if f.uploading {
		f.mu.Unlock()
		return ErrUploadBusy
	}
	if !sniffImage(file) {
		f.mu.Unlock()
		f.notifier.Notify(model.KindError, config.ErrNotAnImage)
		return ErrNotImage
	}
	f.uploading = true
	f.mu.Unlock()

	url, err := f.uploader.UploadImage(ctx, file)

	f.mu.Lock()
	f.uploading = false
	if err == nil {
		f.uploadedURL = url
	}
	f.mu.Unlock()

	if err != nil {
		f.notifier.Notify(model.KindError, err.Error())
		return err
	}
	return nil
}

// Submit validates the form, builds the payload and hands it to the
// SubmitFunc.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrSubmitBusy
	}

	if err := Validate(f.fields); err != nil {
		f.mu.Unlock()
		f.notifier.Notify(model.KindError, err.Error())
		return err
	}

	payload := f.payload()
	f.busy = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	return f.submit(ctx, payload)
}

func (f *Form) payload() *Payload {
	p := &Payload{
		ID:        f.id,
		Title:     f.fields.Title,
		Slug:      Slug(f.fields.Title),
		Content:   f.fields.Content,
		Meta:      f.fields.Meta,
		Tags:      NormalizeTags(f.fields.Tags, f.limits.MaxTags),
		Featured:  f.fields.Featured,
		Thumbnail: f.thumbnailFile,
	}
	if f.thumbnailFile == nil {
		p.ThumbnailURL = f.fields.Thumbnail
	}
	return p
}

// Reset empties the form and removes the draft.
func (f *Form) Reset() error {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	f.mu.Lock()
	f.fields = Fields{}
	f.thumbnailFile = nil
	f.thumbnailURL = ""
	f.uploadedURL = ""
	f.mu.Unlock()

	if f.drafts == nil {
		return nil
	}
	return f.drafts.DeleteDraft(f.draftID)
}

func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) ID() model.PostID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

// ThumbnailURL is what the thumbnail picker shows: the selected file as a
// data URL, or the post's current thumbnail.
func (f *Form) ThumbnailURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.thumbnailURL
}

func (f *Form) UploadedURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadedURL
}

func (f *Form) ImageSnippet() string {
	return ImageSnippet(f.UploadedURL())
}

func (f *Form) Uploading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploading
}

func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *Form) MetaLength() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return utf8.RuneCountInString(f.fields.Meta)
}

func (f *Form) MetaMax() int {
	return f.limits.MetaMax
}
