// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is the Go client for the clubcard API.

Every call is asynchronous and returns a Future. The Future resolves with the
envelope's data, or with a *Error whose Msg can be shown to a user:

	c, _ := client.New("http://localhost:3318", client.DefaultConfig())
	card, err := c.GetCard(ctx, 7).Await(ctx)

A response with success=false is a KindRemote failure whatever its status
code. Transport failures resolve the Future with KindNetwork; they never
panic or hang past the configured timeouts.

Calls run on a bounded workpool.Pool. UI code that must touch state from a
single goroutine can use ThenOn to receive results there.

With WithProbeBeforeCall the client dials the server before each call and
fails fast with KindUnreachable when nothing answers.
*/
package client
