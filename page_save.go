package hxadmin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pthm/hxadmin/lib/form"
)

// CreateID is the path segment that opens a save page in creating mode,
// as in /course/create.
const CreateID = "create"

// SaveProps are the props of a save page. They are encrypted, so a client
// can neither read nor retarget the entity identifier.
type SaveProps struct {
	ID string // empty when creating

	save *SaveController // controller driven by the current action
}

// HXEncode implements Encodable.
func (p SaveProps) HXEncode() map[string]any {
	return map[string]any{"id": p.ID}
}

// HXDecode implements Decodable.
func (p *SaveProps) HXDecode(m map[string]any) error {
	var err error
	p.ID, err = stringProp(m, "id")
	return err
}

// PropsForPath returns the props for the path segment of a save route:
// CreateID opens an empty form, anything else edits that entity.
func PropsForPath(id string) SaveProps {
	if id == CreateID {
		return SaveProps{}
	}
	return SaveProps{ID: id}
}

// SavePageConfig configures a SavePage.
type SavePageConfig struct {
	Name       string // component name, e.g. "course"
	ObjectName string
	ListURL    string
	Endpoints  Endpoints
	Transport  Transport
	Schema     form.Schema
	IDField    string
	Defaults   Values
	Overrides  SaveOverrides
	Logger     *slog.Logger
}

// SavePage is the generic create/edit screen of one entity. Each request is
// served by a fresh SaveController.
type SavePage struct {
	*Component[SaveProps]
	cfg SavePageConfig
}

// NewSavePage creates a save page and registers its actions.
func NewSavePage(cfg SavePageConfig) *SavePage {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	p := &SavePage{cfg: cfg}
	// Entity ids must not be readable from the page.
	p.Component = New[SaveProps](cfg.Name, p.render).Sensitive()

	p.Action("", p.handleRender)
	p.Action("save", p.handleSave)
	return p
}

func (p *SavePage) controller(id string, fx *effects) *SaveController {
	return NewSaveController(SaveConfig{
		ID:         id,
		Endpoints:  p.cfg.Endpoints,
		Transport:  p.cfg.Transport,
		Schema:     p.cfg.Schema,
		ListURL:    p.cfg.ListURL,
		ObjectName: p.cfg.ObjectName,
		IDField:    p.cfg.IDField,
		Defaults:   p.cfg.Defaults,
		Navigator:  fx,
		Notifier:   fx,
		Overrides:  p.cfg.Overrides,
		Logger:     p.cfg.Logger,
	})
}

func (p *SavePage) render(ctx context.Context, props SaveProps) templ.Component {
	ctl := props.save
	if ctl == nil {
		ctl = p.controller(props.ID, &effects{})
		_ = ctl.Mount(ctx)
	}
	return saveView(p, ctl)
}

func (p *SavePage) handleRender(ctx context.Context, props SaveProps, r *http.Request) Result[SaveProps] {
	fx := &effects{}
	ctl := p.controller(props.ID, fx)
	_ = ctl.Mount(ctx)
	props.save = ctl
	return apply(fx, OK(props))
}

// handleSave binds the submitted form onto a freshly loaded entity and
// submits it. Load, validation and save failures re-render the form with
// the entered values; success redirects to the list.
func (p *SavePage) handleSave(ctx context.Context, props SaveProps, r *http.Request) Result[SaveProps] {
	fx := &effects{}
	ctl := p.controller(props.ID, fx)
	props.save = ctl
	if err := r.ParseForm(); err != nil {
		return Err(props, err)
	}
	if err := ctl.Mount(ctx); err != nil {
		// Nothing is submitted, but the input stays on screen next to the
		// load error.
		ctl.Bind(r.PostForm)
		return apply(fx, OK(props))
	}
	ctl.Bind(r.PostForm)

	if err := ctl.Submit(ctx); err != nil && IsValidationError(err) {
		fx.Notify(FlashWarning, "Please correct the highlighted fields")
	}
	return apply(fx, OK(props))
}

func (p *SavePage) objectName() string {
	if p.cfg.ObjectName == "" {
		return "item"
	}
	return p.cfg.ObjectName
}
