// Command import-posts publishes a directory of markdown files through the
// blog API. Each file may start with a %%% TOML %%% block carrying title,
// meta, tags, featured and thumbnail. Files go through the same validation,
// slug and tag rules as the authoring form.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/debemdeboas/the-archive-admin/internal/apiclient"
	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/postform"
	"github.com/debemdeboas/the-archive-admin/internal/util"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	dryRun := flag.Bool("dry-run", false, "validate files without creating posts")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, errStyle.Render("The --path flag is required"))
		os.Exit(2)
	}

	godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Error loading config: "+err.Error()))
		os.Exit(1)
	}

	opts := []apiclient.Option{apiclient.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()})}
	if cfg.API.Token != "" {
		opts = append(opts, apiclient.WithToken(cfg.API.Token))
	}

	imp := &importer{
		api:    apiclient.New(cfg.API.BaseURL, opts...),
		limits: postform.LimitsFromConfig(cfg.Content),
		dryRun: *dryRun,
	}

	failed := imp.importDir(context.Background(), *path)
	if failed > 0 {
		os.Exit(1)
	}
}

type creator interface {
	postform.Uploader
	CreatePost(ctx context.Context, payload apiclient.Multipart) (*model.Post, error)
}

type importer struct {
	api    creator
	limits postform.Limits
	dryRun bool
}

// messages collects what the form would have shown the author.
type messages []model.Notification

func (m *messages) Notify(kind model.NotificationKind, message string) {
	*m = append(*m, model.Notification{Kind: kind, Message: message})
}

// importDir imports every .md file in dir and returns how many failed.
func (imp *importer) importDir(ctx context.Context, dir string) int {
	files, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("Error reading directory %s: %v", dir, err)))
		return 1
	}

	failed := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		start := time.Now()
		slug, notes, err := imp.importFile(ctx, filepath.Join(dir, file.Name()))
		for _, n := range notes {
			if n.Kind == model.KindWarning {
				fmt.Println("  " + warnStyle.Render(n.Message))
			}
		}
		if err != nil {
			failed++
			fmt.Println(errStyle.Render("✗ "+file.Name()) + " " + err.Error())
			continue
		}
		fmt.Println(okStyle.Render("✓ "+file.Name()) + " " + dimStyle.Render(fmt.Sprintf("%s (%s)", slug, time.Since(start).Round(time.Millisecond))))
	}
	return failed
}

// importFile turns one markdown file into a post. The returned slug is the
// one the backend assigned, or the computed one on a dry run.
func (imp *importer) importFile(ctx context.Context, path string) (string, messages, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	fm, err := util.GetFrontMatter(content)
	if err != nil {
		fm = nil
	}

	post := &model.Post{
		Title:   strings.TrimSuffix(filepath.Base(path), ".md"),
		Content: string(util.StripFrontMatter(content, fm)),
	}
	if fm != nil {
		if fm.Title != "" {
			post.Title = fm.Title
		}
		post.Meta = fm.Meta
		post.Tags = fm.Tags
		post.Featured = fm.Featured
		post.Thumbnail = fm.Thumbnail
	}

	var notes messages
	var slug string
	form := postform.New(postform.Options{
		Notifier: &notes,
		Uploader: imp.api,
		Initial:  post,
		Limits:   imp.limits,
		Submit: func(ctx context.Context, p *postform.Payload) error {
			if imp.dryRun {
				slug = p.Slug
				return nil
			}
			created, err := imp.api.CreatePost(ctx, p)
			if err != nil {
				return err
			}
			slug = created.Slug
			return nil
		},
	})

	if len(post.Tags) > imp.limits.MaxTags && imp.limits.MaxTags > 0 {
		notes.Notify(model.KindWarning, config.WarnTooManyTags)
	}

	if err := form.Submit(ctx); err != nil {
		var verr *postform.ValidationError
		if errors.As(err, &verr) {
			return "", notes, fmt.Errorf("%s: %w", verr.Field, err)
		}
		return "", notes, err
	}
	return slug, notes, nil
}
