package hxadmin

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/pthm/hxadmin/lib/form"
)

var courseSchema = form.Schema{
	{Name: "name", Label: "Name", Kind: form.KindText, Required: true},
	{Name: "fee", Label: "Fee", Kind: form.KindNumber, Rules: "min=0"},
	{Name: "status", Label: "Status", Kind: form.KindSelect, Options: StatusOptions},
}

func newTestSave(t *testing.T, id string, tr Transport, fx *effects, overrides SaveOverrides) *SaveController {
	t.Helper()
	return NewSaveController(SaveConfig{
		ID:         id,
		Endpoints:  courseEndpoints,
		Transport:  tr,
		Schema:     courseSchema,
		ListURL:    "/course",
		ObjectName: "course",
		Defaults:   Values{"status": "1"},
		Navigator:  fx,
		Notifier:   fx,
		Overrides:  overrides,
	})
}

func detailTransport(detail map[string]any) *StubTransport {
	return &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		if ep == courseEndpoints.GetByID {
			return OKEnvelope(detail), nil
		}
		return Envelope{Result: true}, nil
	}}
}

func TestSaveController_MountCreating(t *testing.T) {
	tr := &StubTransport{}
	c := newTestSave(t, "", tr, &effects{}, SaveOverrides{})

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if c.Mode() != Creating || c.State() != SaveReady {
		t.Errorf("Mode() = %v State() = %v", c.Mode(), c.State())
	}
	if len(tr.Calls()) != 0 {
		t.Errorf("creating should not fetch, calls = %+v", tr.Calls())
	}
	if got := c.Values()["status"]; got != "1" {
		t.Errorf("status = %v, want the default", got)
	}
	if c.Title() != "Add new course" {
		t.Errorf("Title() = %q", c.Title())
	}
	if c.Dirty() {
		t.Error("fresh form should not be dirty")
	}
}

func TestSaveController_MountEditing(t *testing.T) {
	tr := detailTransport(map[string]any{"id": "c1", "name": "Go", "fee": 120, "status": 1})
	c := newTestSave(t, "c1", tr, &effects{}, SaveOverrides{})

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	calls := tr.CallsTo(courseEndpoints.GetByID)
	if len(calls) != 1 || calls[0].Params.Path["id"] != "c1" {
		t.Fatalf("GetByID calls = %+v", calls)
	}
	v := c.Values()
	if v["name"] != "Go" || v["fee"] != float64(120) || v["status"] != "1" {
		t.Errorf("Values() = %v", v)
	}
	if c.Detail()["id"] != "c1" {
		t.Errorf("Detail() = %v", c.Detail())
	}
	if c.Title() != "Update course" || c.Mode() != Editing {
		t.Errorf("Title() = %q Mode() = %v", c.Title(), c.Mode())
	}
}

func TestSaveController_FetchError(t *testing.T) {
	fail := true
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		if fail {
			return Envelope{}, errors.New("timeout")
		}
		return OKEnvelope(map[string]any{"id": "c1", "name": "Go"}), nil
	}}
	fx := &effects{}
	c := newTestSave(t, "c1", tr, fx, SaveOverrides{})
	ctx := context.Background()

	err := c.Mount(ctx)
	if !IsTransportError(err) {
		t.Fatalf("Mount() error = %v, want transport error", err)
	}
	if c.State() != SaveFetchError || c.LoadErr() == nil {
		t.Errorf("State() = %v LoadErr() = %v", c.State(), c.LoadErr())
	}
	if len(c.Detail()) != 0 {
		t.Errorf("Detail() = %v, want empty", c.Detail())
	}
	if len(fx.flashes) != 1 || fx.flashes[0].Message != "Could not load course" {
		t.Errorf("flashes = %v", fx.flashes)
	}
	if err := c.Submit(ctx); !errors.Is(err, ErrNotReady) {
		t.Errorf("Submit() after fetch error = %v, want ErrNotReady", err)
	}
	if got := len(tr.CallsTo(courseEndpoints.Update)); got != 0 {
		t.Errorf("Update calls = %d, want 0", got)
	}

	fail = false
	if err := c.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if c.State() != SaveReady || c.LoadErr() != nil || c.Values()["name"] != "Go" {
		t.Errorf("after Reload State() = %v LoadErr() = %v Values() = %v", c.State(), c.LoadErr(), c.Values())
	}
}

func TestSaveController_UnexpectedDetail(t *testing.T) {
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		return OKEnvelope([]string{"not", "an", "object"}), nil
	}}
	c := newTestSave(t, "c1", tr, &effects{}, SaveOverrides{})

	if err := c.Mount(context.Background()); !errors.Is(err, ErrUnexpectedEnvelope) {
		t.Errorf("Mount() error = %v, want ErrUnexpectedEnvelope", err)
	}
	if c.State() != SaveFetchError {
		t.Errorf("State() = %v, want fetchError", c.State())
	}
}

func TestSaveController_Dirty(t *testing.T) {
	tr := detailTransport(map[string]any{"id": "c1", "name": "Go"})
	c := newTestSave(t, "c1", tr, &effects{}, SaveOverrides{})
	_ = c.Mount(context.Background())

	c.SetFieldsValue(Values{"name": "Go"})
	if c.Dirty() {
		t.Error("setting an unchanged value should not mark the form dirty")
	}
	c.SetFieldsValue(Values{"name": "Go 2"})
	if !c.Dirty() {
		t.Error("changed value should mark the form dirty")
	}
	_ = c.Reload(context.Background())
	if c.Dirty() || c.Values()["name"] != "Go" {
		t.Errorf("Reload should discard changes, Dirty() = %v Values() = %v", c.Dirty(), c.Values())
	}
}

func TestSaveController_ValidationBlocksSubmit(t *testing.T) {
	tr := &StubTransport{}
	c := newTestSave(t, "", tr, &effects{}, SaveOverrides{})
	_ = c.Mount(context.Background())

	c.Bind(url.Values{"name": {""}, "fee": {"-5"}})
	err := c.Submit(context.Background())

	var verr *form.ValidationError
	if !errors.As(err, &verr) || !IsValidationError(err) {
		t.Fatalf("Submit() error = %v, want validation error", err)
	}
	errs := c.FieldErrors()
	if errs["name"] == "" || errs["fee"] == "" {
		t.Errorf("FieldErrors() = %v, want name and fee", errs)
	}
	if len(tr.Calls()) != 0 {
		t.Errorf("invalid form reached the transport: %+v", tr.Calls())
	}
	if c.State() != SaveReady {
		t.Errorf("State() = %v, want ready", c.State())
	}
}

func TestSaveController_Create(t *testing.T) {
	tr := &StubTransport{}
	fx := &effects{}
	c := newTestSave(t, "", tr, fx, SaveOverrides{})
	ctx := context.Background()
	_ = c.Mount(ctx)

	c.Bind(url.Values{"name": {" Go basics "}, "fee": {"12.5"}})
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	calls := tr.CallsTo(courseEndpoints.Create)
	if len(calls) != 1 {
		t.Fatalf("Create calls = %d, want 1", len(calls))
	}
	body := calls[0].Params.Body.(Values)
	if body["name"] != "Go basics" || body["fee"] != 12.5 || body["status"] != "1" {
		t.Errorf("payload = %v", body)
	}
	if _, ok := body["id"]; ok {
		t.Errorf("create payload carries an id: %v", body)
	}
	if c.State() != SaveSubmitted || c.Dirty() {
		t.Errorf("State() = %v Dirty() = %v", c.State(), c.Dirty())
	}
	if fx.navigate != "/course" {
		t.Errorf("navigate = %q, want /course", fx.navigate)
	}
	if len(fx.flashes) != 1 || fx.flashes[0] != (Flash{Level: FlashSuccess, Message: "Created course"}) {
		t.Errorf("flashes = %v", fx.flashes)
	}
}

func TestSaveController_Update(t *testing.T) {
	tr := detailTransport(map[string]any{"id": "c1", "name": "Go", "fee": 10})
	fx := &effects{}
	c := newTestSave(t, "c1", tr, fx, SaveOverrides{})
	ctx := context.Background()
	_ = c.Mount(ctx)

	c.SetFieldsValue(Values{"fee": "20"})
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	calls := tr.CallsTo(courseEndpoints.Update)
	if len(calls) != 1 {
		t.Fatalf("Update calls = %d, want 1", len(calls))
	}
	if calls[0].Params.Path["id"] != "c1" {
		t.Errorf("update path id = %q", calls[0].Params.Path["id"])
	}
	body := calls[0].Params.Body.(Values)
	if body["id"] != "c1" || body["name"] != "Go" || body["fee"] != float64(20) {
		t.Errorf("payload = %v", body)
	}
	if fx.flashes[0].Message != "Updated course" {
		t.Errorf("flashes = %v", fx.flashes)
	}
}

func TestSaveController_LogicalFailureKeepsValues(t *testing.T) {
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		return FailEnvelope("Course name already exists"), nil
	}}
	fx := &effects{}
	c := newTestSave(t, "", tr, fx, SaveOverrides{})
	ctx := context.Background()
	_ = c.Mount(ctx)

	c.SetFieldsValue(Values{"name": "Go"})
	err := c.Submit(ctx)
	if !IsLogicalFailure(err) {
		t.Fatalf("Submit() error = %v, want logical failure", err)
	}
	if c.State() != SaveReady {
		t.Errorf("State() = %v, want ready for a retry", c.State())
	}
	if !IsLogicalFailure(c.SubmitErr()) {
		t.Errorf("SubmitErr() = %v", c.SubmitErr())
	}
	if c.Values()["name"] != "Go" || !c.Dirty() {
		t.Errorf("values lost after failure: %v dirty=%v", c.Values(), c.Dirty())
	}
	if fx.navigate != "" {
		t.Errorf("failed save navigated to %q", fx.navigate)
	}
	if len(fx.flashes) != 1 || fx.flashes[0] != (Flash{Level: FlashError, Message: "Course name already exists"}) {
		t.Errorf("flashes = %v", fx.flashes)
	}

	tr.Handler = nil
	if err := c.Submit(ctx); err != nil {
		t.Errorf("retry Submit() error = %v", err)
	}
	if c.SubmitErr() != nil {
		t.Errorf("SubmitErr() = %v after success", c.SubmitErr())
	}
}

func TestSaveController_TransportFailureMessage(t *testing.T) {
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		return Envelope{}, errors.New("503")
	}}
	fx := &effects{}
	c := newTestSave(t, "", tr, fx, SaveOverrides{})
	_ = c.Mount(context.Background())
	c.SetFieldsValue(Values{"name": "Go"})

	if err := c.Submit(context.Background()); !IsTransportError(err) {
		t.Fatalf("Submit() error = %v, want transport error", err)
	}
	if len(fx.flashes) != 1 || fx.flashes[0].Message != "Could not save course" {
		t.Errorf("flashes = %v", fx.flashes)
	}
}

func TestSaveController_Overrides(t *testing.T) {
	tr := detailTransport(map[string]any{"courseId": "c9", "name": "Go"})
	fx := &effects{}
	var saveErr error
	c := newTestSave(t, "c9", tr, fx, SaveOverrides{
		PrepareUpdateData: func(values, detail Values) Values {
			out := Values{"courseId": detail["courseId"]}
			for k, v := range values {
				out[k] = v
			}
			return out
		},
		OnSaveError: func(ctx context.Context, c *SaveController, err error) {
			saveErr = err
			c.Notify(FlashWarning, "custom")
		},
	})
	ctx := context.Background()
	_ = c.Mount(ctx)

	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	body := tr.CallsTo(courseEndpoints.Update)[0].Params.Body.(Values)
	if body["courseId"] != "c9" {
		t.Errorf("payload = %v, want courseId", body)
	}
	if _, ok := body["id"]; ok {
		t.Errorf("override payload got the default id field: %v", body)
	}

	tr.Handler = func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		return FailEnvelope("nope"), nil
	}
	c2 := newTestSave(t, "", tr, fx, SaveOverrides{
		PrepareCreateData: func(values Values) Values {
			return Values{"categoryOrdering": 0, "name": values["name"]}
		},
		OnSaveError: func(ctx context.Context, c *SaveController, err error) {
			saveErr = err
			c.Notify(FlashWarning, "custom")
		},
	})
	_ = c2.Mount(ctx)
	c2.SetFieldsValue(Values{"name": "Go"})
	_ = c2.Submit(ctx)

	body = tr.CallsTo(courseEndpoints.Create)[0].Params.Body.(Values)
	if body["categoryOrdering"] != 0 || len(body) != 2 {
		t.Errorf("create payload = %v", body)
	}
	if !IsLogicalFailure(saveErr) {
		t.Errorf("OnSaveError got %v", saveErr)
	}
	last := fx.flashes[len(fx.flashes)-1]
	if last != (Flash{Level: FlashWarning, Message: "custom"}) {
		t.Errorf("last flash = %v, want the override's", last)
	}
}

func TestSaveController_SubmitNotReentrant(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		close(entered)
		<-release
		return Envelope{Result: true}, nil
	}}
	c := newTestSave(t, "", tr, &effects{}, SaveOverrides{})
	ctx := context.Background()
	_ = c.Mount(ctx)
	c.SetFieldsValue(Values{"name": "Go"})

	done := make(chan error, 1)
	go func() { done <- c.Submit(ctx) }()
	<-entered

	if !c.Loading() || c.State() != SaveSubmitting {
		t.Errorf("Loading() = %v State() = %v while submitting", c.Loading(), c.State())
	}
	if err := c.Submit(ctx); !errors.Is(err, ErrSubmitInProgress) {
		t.Errorf("second Submit() = %v, want ErrSubmitInProgress", err)
	}
	// Input is still accepted while the request is outstanding.
	c.SetFieldsValue(Values{"fee": 3})

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got := len(tr.Calls()); got != 1 {
		t.Errorf("transport calls = %d, want 1", got)
	}
	if err := c.Submit(ctx); !errors.Is(err, ErrNotReady) {
		t.Errorf("Submit() after success = %v, want ErrNotReady", err)
	}
}

func TestSaveController_FormID(t *testing.T) {
	a := newTestSave(t, "", &StubTransport{}, &effects{}, SaveOverrides{})
	b := newTestSave(t, "", &StubTransport{}, &effects{}, SaveOverrides{})

	if !strings.HasPrefix(a.FormID(), "form-") {
		t.Errorf("FormID() = %q", a.FormID())
	}
	if a.FormID() == b.FormID() {
		t.Errorf("two sessions share form id %q", a.FormID())
	}
}

func TestSaveStateString(t *testing.T) {
	if SaveFetchError.String() != "fetchError" || SaveState(42).String() != "SaveState(42)" {
		t.Errorf("String() = %q, %q", SaveFetchError.String(), SaveState(42).String())
	}
}
