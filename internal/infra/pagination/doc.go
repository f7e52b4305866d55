// Package pagination drains the CRM's listing endpoints to completion.
//
// Two API generations paginate differently, so the walk is a Strategy chosen
// once at startup:
//
//	strategy, err := pagination.New(pagination.KindPagePost, client, opts)
//	items, err := strategy.Drain(ctx, pagination.Request{
//		Path:     "/contacts/search",
//		ItemsKey: "contacts",
//		Params:   map[string]string{"locationId": locationID},
//	})
//
// Every strategy:
//   - issues page requests strictly in sequence (each depends on the last)
//   - keeps server order and drops repeated ids across pages
//   - treats an empty first page as a complete, empty result
//   - never requests another page once the server signalled the end
//   - fails the whole drain on the first failed page
package pagination
