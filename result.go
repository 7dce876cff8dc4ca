package hxadmin

// Result is what a page action returns: the props to render with, plus the
// side effects the dispatcher applies before rendering.
//
//	return hxadmin.OK(props).Flash(hxadmin.FlashSuccess, "Deleted course")
//	return hxadmin.Redirect[SaveProps]("/course")
//	return hxadmin.OK(props).ReplaceURL("/course?page=2")
//
// Handlers never write to the ResponseWriter themselves.
type Result[P any] struct {
	props       P
	err         error
	redirect    string
	flashes     []Flash
	trigger     string
	triggerData map[string]any
	headers     map[string]string
}

// OK renders the page with props.
func OK[P any](props P) Result[P] {
	return Result[P]{props: props}
}

// Err hands err to the registry's OnError instead of rendering.
//
// Backend failures are normally shown inline and flashed; Err is for
// requests the page cannot render at all, such as a delete without an id.
func Err[P any](props P, err error) Result[P] {
	return Result[P]{props: props, err: err}
}

// Redirect sends the browser to url with HX-Redirect. Flashes of the
// result are carried to the next page in a cookie.
func Redirect[P any](url string) Result[P] {
	return Result[P]{redirect: url}
}

// Flash adds a toast.
func (r Result[P]) Flash(level, message string) Result[P] {
	r.flashes = append(r.flashes, Flash{Level: level, Message: message})
	return r
}

// Trigger emits event with HX-Trigger. Data, if given, reaches listeners as
// evt.detail.
func (r Result[P]) Trigger(event string, data ...map[string]any) Result[P] {
	r.trigger = event
	if len(data) > 0 {
		r.triggerData = data[0]
	}
	return r
}

// ReplaceURL rewrites the address bar without adding a history entry.
func (r Result[P]) ReplaceURL(url string) Result[P] {
	return r.Header("HX-Replace-Url", url)
}

// Header sets a response header.
func (r Result[P]) Header(key, value string) Result[P] {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}
