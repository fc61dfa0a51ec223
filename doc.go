// Package leakix provides a Go client for the LeakIX API (https://leakix.net).
//
// # Features
//
//   - Typed query builder for the LeakIX search syntax
//   - Blocking Client and lazily connected AsyncClient sharing one API
//   - Streaming bulk export with Go 1.23+ iterators
//   - Automatic retry of rate limited searches with exponential backoff
//   - Optional slog logging, Prometheus metrics and OpenTelemetry tracing
//
// # Quick Start
//
//	client, err := leakix.NewClient(leakix.WithAPIKey(apiKey))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Services(ctx, []leakix.Query{
//	    leakix.Must(leakix.NewCountryField("France")),
//	    leakix.Must(leakix.NewPluginField(leakix.GitConfigHttpPlugin)),
//	}, 0)
//	if err != nil {
//	    log.Fatal(err) // invalid argument or transport failure
//	}
//	if !resp.IsSuccess() {
//	    log.Fatal(resp.Err())
//	}
//	for _, event := range resp.Data() {
//	    fmt.Println(event.IP, event.Port)
//	}
//
// # Responses
//
// HTTP failures are not returned as Go errors. Every call that reached the
// server returns a response classified as success, rate limited or error;
// Err converts a failed response into a typed error:
//
//	if err := resp.Err(); err != nil {
//	    var rl *leakix.RateLimitError
//	    if errors.As(err, &rl) {
//	        time.Sleep(rl.RetryAfter)
//	    }
//	}
//
// A 204 No Content answer is reported as a success with status 200 and an
// empty list.
//
// # Bulk export
//
// Bulk results arrive as newline-delimited JSON and can be consumed record
// by record:
//
//	for agg, err := range client.BulkExportStream(ctx, queries) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(agg.IP, len(agg.Events))
//	}
package leakix
