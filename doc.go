// Package hxadmin provides the generic list and save screens of an admin
// back office, rendered on the server and driven by HTMX.
//
// Every entity page is assembled from the same pieces: a ListPage backed by
// a ListController and a SavePage backed by a SaveController. Both talk to
// the backend through a Transport that returns a normalized Envelope, and
// entity-specific behavior is supplied through override hooks instead of
// subclassing.
//
// # Pages and Actions
//
// Pages embed *Component[P] where P is the props type. Props are signed and
// travel in every action URL, so a request carries everything needed to
// rebuild the controller:
//
//	courses := hxadmin.NewListPage(hxadmin.ListPageConfig[Course]{
//	    Name:      "course",
//	    Path:      "/course",
//	    Endpoints: hxadmin.CRUD("/v1/course"),
//	    Transport: client,
//	})
//
// List pages register "filter", "page", "sort" and "delete" actions. Save
// pages register "save". The empty action renders the page.
//
// Each component receives a unique URL prefix based on its name and source
// location hash. The registry panics on prefix collisions at registration.
//
// # List Query
//
// The filter, page, page size and sort of a list are held in a query.State
// and mirrored into the browser URL with HX-Replace-Url, so a list URL can
// be bookmarked and restored. Changing the filter resets the page to 1.
// A fetch that was superseded by a newer one is canceled and its response
// dropped. A failed fetch keeps the previous rows on screen.
//
// # Save Forms
//
// A SaveController is in creating mode when it has no identifier and in
// editing mode otherwise. Submitting validates the form, shapes the payload
// through PrepareCreateData or PrepareUpdateData and navigates back to the
// list on success. Failures leave the entered values in place.
//
// # Security Model
//
// Props are encoded in URLs using one of two modes:
//   - Signed (default): HMAC-authenticated msgpack, visible but tamper-proof
//   - Encrypted: AES-GCM encrypted, opaque to clients (.Sensitive(), used by
//     save pages)
//
// Mutating methods (POST/PUT/DELETE/PATCH) require the HX-Request header
// that HTMX sends.
//
// # Notifications
//
// Controllers report outcomes through Notifier and Navigator. Pages turn
// these into toasts rendered as out-of-band swaps, and into HX-Redirect or
// HX-Replace-Url headers. Toasts that accompany a redirect are stored in a
// short-lived cookie and shown on the next page.
//
// # Testing
//
// TestAction, TestGet and TestPost exercise a page through its HTTP
// handler. StubTransport records backend calls:
//
//	tr := &hxadmin.StubTransport{}
//	result, _ := hxadmin.TestGet(page, page.URL("", hxadmin.ListProps{}))
//	if !result.HTMLContains("Total 0") { ... }
package hxadmin
