package hxadmin

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pthm/hxadmin/lib/form"
)

// Mode tells whether a save page creates a new entity or edits one.
type Mode int

const (
	Creating Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "creating"
}

// SaveState is the lifecycle state of a SaveController.
type SaveState int

const (
	SaveIdle SaveState = iota
	SaveFetchingDetail
	SaveReady
	SaveSubmitting
	SaveSubmitted
	SaveSubmitError
	SaveFetchError
)

func (s SaveState) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SaveFetchingDetail:
		return "fetchingDetail"
	case SaveReady:
		return "ready"
	case SaveSubmitting:
		return "submitting"
	case SaveSubmitted:
		return "submitted"
	case SaveSubmitError:
		return "submitError"
	case SaveFetchError:
		return "fetchError"
	}
	return "SaveState(" + strconv.Itoa(int(s)) + ")"
}

// SaveOverrides are the extension points of a save page. A nil field uses
// the default; a non-nil field replaces it entirely.
type SaveOverrides struct {
	// PrepareCreateData shapes the create payload.
	// Default: a copy of the form values.
	PrepareCreateData func(values Values) Values

	// PrepareUpdateData shapes the update payload from the form values and
	// the loaded detail. Default: a copy of the values with the identifier
	// field taken from the detail.
	PrepareUpdateData func(values Values, detail Values) Values

	// OnSaveError handles a failed create or update.
	// Default: an error notification carrying the backend message, if any.
	OnSaveError func(ctx context.Context, c *SaveController, err error)
}

// SaveConfig configures a SaveController.
type SaveConfig struct {
	// ID of the entity to edit. Empty means creating.
	ID string

	Endpoints  Endpoints
	Transport  Transport
	Schema     form.Schema
	ListURL    string // navigation target after a successful save
	ObjectName string
	IDField    string // defaults to "id"
	Defaults   Values // initial values when creating
	Navigator  Navigator
	Notifier   Notifier
	Overrides  SaveOverrides
	Logger     *slog.Logger
}

// SaveController owns the fetch, create and update lifecycle of one save
// page session.
//
// Submitting is only possible from SaveReady and is not re-entrant. A failed
// submit returns to SaveReady with the form values untouched.
type SaveController struct {
	cfg    SaveConfig
	mode   Mode
	formID string

	mu        sync.Mutex
	state     SaveState
	detail    Values
	form      *form.Form
	dirty     bool
	loadErr   error
	submitErr error
}

// NewSaveController creates an idle controller. The mode is fixed here:
// editing when cfg.ID is set, creating otherwise.
func NewSaveController(cfg SaveConfig) *SaveController {
	if cfg.IDField == "" {
		cfg.IDField = "id"
	}
	if cfg.Navigator == nil {
		cfg.Navigator = discard{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = discard{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	mode := Creating
	if cfg.ID != "" {
		mode = Editing
	}
	return &SaveController{
		cfg:    cfg,
		mode:   mode,
		formID: "form-" + uuid.NewString(),
		detail: Values{},
		form:   form.New(cfg.Schema),
	}
}

// Mount starts the session. Creating goes straight to SaveReady with the
// configured defaults; editing fetches the detail first.
func (c *SaveController) Mount(ctx context.Context) error {
	if c.mode == Creating {
		c.mu.Lock()
		c.detail = Values{}
		c.form.ResetFields(c.cfg.Defaults)
		c.dirty = false
		c.state = SaveReady
		c.mu.Unlock()
		return nil
	}
	return c.fetchDetail(ctx)
}

// Reload refetches the detail in editing mode, discarding unsaved changes.
// It is the remedy for a load error.
func (c *SaveController) Reload(ctx context.Context) error {
	if c.mode != Editing {
		return nil
	}
	return c.fetchDetail(ctx)
}

func (c *SaveController) fetchDetail(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case SaveFetchingDetail, SaveSubmitting:
		c.mu.Unlock()
		return ErrNotReady
	}
	c.state = SaveFetchingDetail
	c.mu.Unlock()

	env, err := c.cfg.Transport.Execute(ctx, c.cfg.Endpoints.GetByID, Params{Path: map[string]string{"id": c.cfg.ID}})
	var detail Values
	if err != nil {
		err = &TransportError{Op: "get detail", Err: err}
	} else {
		detail, err = decodeDetail(env)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = SaveFetchError
		c.detail = Values{}
		c.form.ResetFields(nil)
		c.dirty = false
		c.loadErr = err
		c.cfg.Logger.ErrorContext(ctx, "detail fetch failed",
			"object", c.cfg.ObjectName, "id", c.cfg.ID, "error", err)
		c.cfg.Notifier.Notify(FlashError, fmt.Sprintf("Could not load %s", c.objectName()))
		return err
	}
	c.state = SaveReady
	c.detail = detail
	c.form.ResetFields(detail)
	c.dirty = false
	c.loadErr = nil
	return nil
}

// SetFieldsValue applies user input. Any effective change raises the dirty
// flag. Input is accepted in every state, including while a request is
// outstanding.
func (c *SaveController) SetFieldsValue(values Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.form.SetFieldsValue(values) {
		c.dirty = true
	}
}

// Bind applies submitted form values, converted by field kind.
func (c *SaveController) Bind(submitted url.Values) {
	c.mu.Lock()
	values := c.form.Bind(submitted)
	c.mu.Unlock()
	c.SetFieldsValue(values)
}

// Submit validates the form and sends the create or update request.
//
// It returns ErrSubmitInProgress while a submit is outstanding and
// ErrNotReady in any other state but SaveReady; neither reaches the
// transport. A validation failure returns *form.ValidationError and also
// never reaches the transport.
func (c *SaveController) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case SaveReady:
	case SaveSubmitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	default:
		c.mu.Unlock()
		return ErrNotReady
	}
	if err := c.form.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	values := c.form.Values()
	detail := maps.Clone(c.detail)
	c.state = SaveSubmitting
	c.mu.Unlock()

	op, ep, params := "create", c.cfg.Endpoints.Create, Params{}
	if c.mode == Editing {
		op, ep = "update", c.cfg.Endpoints.Update
		params.Path = map[string]string{"id": c.cfg.ID}
		params.Body = c.prepareUpdate(values, detail)
	} else {
		params.Body = c.prepareCreate(values)
	}

	env, err := c.cfg.Transport.Execute(ctx, ep, params)
	if err != nil {
		err = &TransportError{Op: op, Err: err}
	} else if !env.Result {
		err = &LogicalError{Message: env.Message}
	}

	if err != nil {
		c.mu.Lock()
		c.state = SaveSubmitError
		c.submitErr = err
		c.mu.Unlock()

		c.cfg.Logger.WarnContext(ctx, "save failed", "object", c.cfg.ObjectName, "op", op, "error", err)
		c.onSaveError(ctx, err)

		c.mu.Lock()
		c.state = SaveReady
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.state = SaveSubmitted
	c.dirty = false
	c.submitErr = nil
	c.mu.Unlock()

	verb := "Created"
	if c.mode == Editing {
		verb = "Updated"
	}
	c.cfg.Notifier.Notify(FlashSuccess, fmt.Sprintf("%s %s", verb, c.objectName()))
	c.cfg.Navigator.Navigate(c.cfg.ListURL)
	return nil
}

func (c *SaveController) prepareCreate(values Values) Values {
	if fn := c.cfg.Overrides.PrepareCreateData; fn != nil {
		return fn(values)
	}
	return maps.Clone(values)
}

func (c *SaveController) prepareUpdate(values, detail Values) Values {
	if fn := c.cfg.Overrides.PrepareUpdateData; fn != nil {
		return fn(values, detail)
	}
	payload := maps.Clone(values)
	if payload == nil {
		payload = Values{}
	}
	if id, ok := detail[c.cfg.IDField]; ok && id != nil {
		payload[c.cfg.IDField] = id
	} else {
		payload[c.cfg.IDField] = c.cfg.ID
	}
	return payload
}

func (c *SaveController) onSaveError(ctx context.Context, err error) {
	if fn := c.cfg.Overrides.OnSaveError; fn != nil {
		fn(ctx, c, err)
		return
	}
	msg := MessageOf(err)
	if msg == "" {
		msg = fmt.Sprintf("Could not save %s", c.objectName())
	}
	c.cfg.Notifier.Notify(FlashError, msg)
}

// Notify sends a notification through the controller's Notifier. It lets
// OnSaveError overrides reuse the page's notification channel.
func (c *SaveController) Notify(level, message string) {
	c.cfg.Notifier.Notify(level, message)
}

// Mode returns the fixed mode.
func (c *SaveController) Mode() Mode {
	return c.mode
}

// ID returns the identifier being edited, or "" when creating.
func (c *SaveController) ID() string {
	return c.cfg.ID
}

// FormID returns an identifier unique to this session, used to tie submit
// buttons to the form element.
func (c *SaveController) FormID() string {
	return c.formID
}

// Title returns "Add new <object>" or "Update <object>".
func (c *SaveController) Title() string {
	if c.mode == Editing {
		return "Update " + c.objectName()
	}
	return "Add new " + c.objectName()
}

// Schema returns the form schema.
func (c *SaveController) Schema() form.Schema {
	return c.cfg.Schema
}

// State returns the lifecycle state.
func (c *SaveController) State() SaveState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether the detail is being fetched or a submit is
// outstanding.
func (c *SaveController) Loading() bool {
	s := c.State()
	return s == SaveFetchingDetail || s == SaveSubmitting
}

// Detail returns a copy of the loaded entity.
func (c *SaveController) Detail() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.detail)
}

// Values returns a copy of the current form values.
func (c *SaveController) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Values()
}

// FieldErrors returns the current per-field validation messages.
func (c *SaveController) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Errors()
}

// Dirty reports unsaved changes since the last load or save.
func (c *SaveController) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// LoadErr returns the detail fetch error, if any. Remedy: Reload.
func (c *SaveController) LoadErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// SubmitErr returns the last submit error, if any. Remedy: Submit again.
func (c *SaveController) SubmitErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

func (c *SaveController) objectName() string {
	if c.cfg.ObjectName == "" {
		return "item"
	}
	return c.cfg.ObjectName
}
