// Package httpclient sends request specs over HTTP and records their outcomes.
//
// The httpclient package handles:
//   - A shared, connection-pooling client with a per-request timeout
//   - Request construction from a [spec.RequestSpec] (headers, query, JSON or form payload)
//   - Transparent gzip and brotli response decoding
//   - Mapping transport failures onto a stable set of error categories
//
// # HTTP Client
//
// [NewClient] creates the client shared by every in-flight request:
//
//	client, err := httpclient.NewClient(30 * time.Second)
//	if err != nil {
//		return err
//	}
//
// # Dispatching
//
// A [Dispatcher] turns one spec into exactly one [metrics.RequestResult]. It never
// returns an error; every failure is recorded on the result:
//
//	d := httpclient.NewDispatcher(client, 30*time.Second)
//	result := d.Dispatch(ctx, s)
//
// # Error Categories
//
// [Classify] maps transport errors to an [ErrorKind]. The rendered text, such as
// "Unable to connect to server: dial tcp ...", is stored in RequestResult.Error.
package httpclient
