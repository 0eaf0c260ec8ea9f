package postform

import (
	"context"
	"sync"

	"github.com/debemdeboas/the-archive-admin/internal/apiclient"
	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/repository/editor"
)

// NewFormKey addresses the create form in URLs. Edit forms live under
// EditFormKey, so no post slug can shadow the create form.
const NewFormKey = "new"

const editKeyPrefix = "edit."

func EditFormKey(slug string) string {
	return editKeyPrefix + slug
}

type API interface {
	Uploader
	GetPost(ctx context.Context, slug string) (*model.Post, error)
	CreatePost(ctx context.Context, payload apiclient.Multipart) (*model.Post, error)
	UpdatePost(ctx context.Context, id model.PostID, payload apiclient.Multipart) (*model.Post, error)
}

type Deps struct {
	API      API
	Drafts   editor.Repository
	Session  string
	Notifier Notifier
	Limits   Limits
}

// Flow binds a Form to either creating a new post or updating an existing
// one.
type Flow struct {
	*Form

	Key         string
	Slug        string
	Heading     string
	SubmitLabel string
	Editing     bool

	mu       sync.Mutex
	redirect string
}

// NewCreateFlow builds the create form and resumes the session's draft.
// On a successful submit the form and draft are cleared and the author is
// sent to the edit page of the new post.
func NewCreateFlow(deps Deps) *Flow {
	fl := &Flow{
		Key:         NewFormKey,
		Heading:     "Create New Post",
		SubmitLabel: "Post",
	}

	fl.Form = New(Options{
		Drafts:   deps.Drafts,
		DraftID:  editor.BlogPostDraft(deps.Session),
		Notifier: deps.Notifier,
		Uploader: deps.API,
		Limits:   deps.Limits,
		Submit: func(ctx context.Context, p *Payload) error {
			post, err := deps.API.CreatePost(ctx, p)
			if err != nil {
				deps.Notifier.Notify(model.KindError, err.Error())
				return err
			}
			if err := fl.Form.Reset(); err != nil {
				formLogger.Warn().Err(err).Msg("Failed to clear draft after submit")
			}
			fl.setRedirect("/update-post/" + post.Slug)
			return nil
		},
	})

	if err := fl.Form.LoadDraft(); err != nil {
		formLogger.Warn().Err(err).Str("session", deps.Session).Msg("Ignoring unreadable draft")
	}
	return fl
}

// NewEditFlow fetches the post by slug and seeds the form from it. The
// draft store is written to on edits but never read.
func NewEditFlow(ctx context.Context, deps Deps, slug string) (*Flow, error) {
	post, err := deps.API.GetPost(ctx, slug)
	if err != nil {
		deps.Notifier.Notify(model.KindError, err.Error())
		return nil, err
	}

	fl := &Flow{
		Key:         EditFormKey(slug),
		Slug:        slug,
		Heading:     "Update Post",
		SubmitLabel: "Update",
		Editing:     true,
	}

	fl.Form = New(Options{
		Drafts:   deps.Drafts,
		DraftID:  editor.BlogPostDraft(deps.Session),
		Notifier: deps.Notifier,
		Uploader: deps.API,
		Limits:   deps.Limits,
		Initial:  post,
		Submit: func(ctx context.Context, p *Payload) error {
			if _, err := deps.API.UpdatePost(ctx, p.ID, p); err != nil {
				deps.Notifier.Notify(model.KindError, err.Error())
				return err
			}
			deps.Notifier.Notify(model.KindSuccess, config.MsgPostUpdated)
			return nil
		},
	})
	return fl, nil
}

// Submit runs the form submit and returns where the browser should go next,
// or "" to stay on the page.
func (fl *Flow) Submit(ctx context.Context) (string, error) {
	fl.setRedirect("")
	if err := fl.Form.Submit(ctx); err != nil {
		return "", err
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.redirect, nil
}

func (fl *Flow) setRedirect(to string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.redirect = to
}
